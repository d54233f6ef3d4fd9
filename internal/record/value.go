package record

import (
	"fmt"

	"github.com/asaskevich/govalidator"

	dErrors "geoatlas/pkg/domain-errors"
)

// Value is the closed variant type behind Field.Value. Consumers (diff,
// validation, rendering adapters) switch exhaustively over the concrete types;
// no other shapes are legal once a field crosses an accept boundary.
type Value interface {
	isValue()
}

type StringValue string

type NumberValue float64

type BoolValue bool

// Coordinates is a GPS pair kept as numeric-parseable strings, the way the
// documents store it.
type Coordinates struct {
	Lat string `json:"lat" bson:"lat"`
	Lng string `json:"lng" bson:"lng"`
}

// FileRef references an uploaded file. Bytes live elsewhere; only the
// reference is part of the record.
type FileRef struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

func (StringValue) isValue() {}
func (NumberValue) isValue() {}
func (BoolValue) isValue()   {}
func (Coordinates) isValue() {}
func (FileRef) isValue()     {}

// ParseValue checks a raw document value against its declared type tag and
// returns the typed variant. The UI may be permissive; this boundary is not:
// a shape mismatch is a ValidationError, never a silent coercion.
func ParseValue(t FieldType, raw any) (Value, error) {
	switch t {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, typeMismatch(t, raw)
		}
		return StringValue(s), nil
	case TypeNumber:
		switch n := raw.(type) {
		case float64:
			return NumberValue(n), nil
		case int:
			return NumberValue(n), nil
		case int32:
			return NumberValue(n), nil
		case int64:
			return NumberValue(n), nil
		}
		return nil, typeMismatch(t, raw)
	case TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, typeMismatch(t, raw)
		}
		return BoolValue(b), nil
	case TypeCoordinates:
		return parseCoordinates(raw)
	case TypeFile:
		return parseFileRef(raw)
	default:
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("unknown field type %q", t))
	}
}

// parseCoordinates accepts the stored pair shape: exactly two entries, each a
// numeric-parseable string.
func parseCoordinates(raw any) (Value, error) {
	pair, ok := asStringPair(raw)
	if !ok {
		return nil, typeMismatch(TypeCoordinates, raw)
	}
	for _, part := range pair {
		if !govalidator.IsFloat(part) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("coordinate %q is not numeric", part))
		}
	}
	return Coordinates{Lat: pair[0], Lng: pair[1]}, nil
}

func asStringPair(raw any) ([2]string, bool) {
	switch v := raw.(type) {
	case []string:
		if len(v) != 2 {
			return [2]string{}, false
		}
		return [2]string{v[0], v[1]}, true
	case []any:
		if len(v) != 2 {
			return [2]string{}, false
		}
		a, okA := v[0].(string)
		b, okB := v[1].(string)
		if !okA || !okB {
			return [2]string{}, false
		}
		return [2]string{a, b}, true
	case Coordinates:
		return [2]string{v.Lat, v.Lng}, true
	}
	return [2]string{}, false
}

// parseFileRef accepts the stored uploaded-file shape: an object with at least
// name and url string fields.
func parseFileRef(raw any) (Value, error) {
	switch v := raw.(type) {
	case FileRef:
		if v.Name == "" || v.URL == "" {
			return nil, typeMismatch(TypeFile, raw)
		}
		return v, nil
	case map[string]any:
		name, okName := v["name"].(string)
		url, okURL := v["url"].(string)
		if !okName || !okURL || name == "" || url == "" {
			return nil, typeMismatch(TypeFile, raw)
		}
		return FileRef{Name: name, URL: url}, nil
	}
	return nil, typeMismatch(TypeFile, raw)
}

func typeMismatch(t FieldType, raw any) error {
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("value %v does not match declared type %q", raw, t))
}
