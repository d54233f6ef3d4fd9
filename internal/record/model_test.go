package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "geoatlas/pkg/domain-errors"
)

func validRecord() Record {
	return Record{
		ID: "rec-1",
		Metadata: Metadata{
			Label:  "Site A",
			Entity: "DR Bretagne",
		},
		Values: []Field{
			{Label: "name", Type: TypeString, Value: "Site A"},
			{Label: "position", Type: TypeCoordinates, Value: []string{"48.11", "-1.68"}},
		},
	}
}

func TestRecordValidate(t *testing.T) {
	t.Run("valid record passes", func(t *testing.T) {
		require.NoError(t, validRecord().Validate())
	})

	t.Run("empty label is rejected", func(t *testing.T) {
		rec := validRecord()
		rec.Metadata.Label = ""
		assert.True(t, dErrors.Is(rec.Validate(), dErrors.CodeValidation))
	})

	t.Run("empty entity is rejected", func(t *testing.T) {
		rec := validRecord()
		rec.Metadata.Entity = ""
		assert.True(t, dErrors.Is(rec.Validate(), dErrors.CodeValidation))
	})

	t.Run("field value must match its declared type", func(t *testing.T) {
		rec := validRecord()
		rec.Values[0].Value = 42
		err := rec.Validate()
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "values[0]")
	})

	t.Run("children are validated recursively", func(t *testing.T) {
		rec := validRecord()
		bad := validRecord()
		bad.Metadata.Label = ""
		rec.Children = map[string][]Record{"equipment": {bad}}
		assert.True(t, dErrors.Is(rec.Validate(), dErrors.CodeValidation))
	})
}

func TestSummarize(t *testing.T) {
	t.Run("marker position from the first parsing coordinates field", func(t *testing.T) {
		rec := validRecord()
		sum := Summarize(rec)
		assert.Equal(t, "rec-1", sum.ID)
		assert.Equal(t, "Site A", sum.Label)
		assert.Equal(t, "SA", sum.Abbrev)
		assert.Equal(t, "DR Bretagne", sum.Entity)
		require.NotNil(t, sum.Coordinates)
		assert.Equal(t, Coordinates{Lat: "48.11", Lng: "-1.68"}, *sum.Coordinates)
	})

	t.Run("no coordinates field yields no position", func(t *testing.T) {
		rec := validRecord()
		rec.Values = rec.Values[:1]
		assert.Nil(t, Summarize(rec).Coordinates)
	})

	t.Run("unparseable coordinates are skipped", func(t *testing.T) {
		rec := validRecord()
		rec.Values = append(rec.Values, Field{Label: "backup", Type: TypeCoordinates, Value: []string{"47.21", "-1.55"}})
		rec.Values[1].Value = []string{"broken"}
		sum := Summarize(rec)
		require.NotNil(t, sum.Coordinates)
		assert.Equal(t, "47.21", sum.Coordinates.Lat)
	})
}
