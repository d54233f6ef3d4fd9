package record

// Summary is the light projection of a record used for map markers and the
// cached list view.
type Summary struct {
	ID          string       `json:"_id"`
	Label       string       `json:"label"`
	Abbrev      string       `json:"abbrev"`
	Entity      string       `json:"entity"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Summarize projects a record onto its summary. The marker position comes from
// the first coordinates-typed field whose value parses; records without one
// simply have no position.
func Summarize(rec Record) Summary {
	s := Summary{
		ID:     rec.ID,
		Label:  rec.Metadata.Label,
		Abbrev: Abbreviate(rec.Metadata.Label),
		Entity: rec.Metadata.Entity,
	}
	for _, f := range rec.Values {
		if f.Type != TypeCoordinates {
			continue
		}
		if v, err := ParseValue(TypeCoordinates, f.Value); err == nil {
			coords := v.(Coordinates)
			s.Coordinates = &coords
			break
		}
	}
	return s
}
