package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/app/models"
)

func TestFlagCoercion(t *testing.T) {
	cases := map[string]bool{
		`true`: true, `false`: false,
		`"true"`: true, `"false"`: false, `"1"`: true, `"0"`: false, `"TRUE"`: true,
		`1`: true, `0`: false, `2.5`: true,
		`null`: false,
	}
	for raw, want := range cases {
		var in struct {
			Active models.Flag `json:"active"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"active":`+raw+`}`), &in), raw)
		assert.Equal(t, want, bool(in.Active), raw)
	}
}

func TestFlagRejectsNonsense(t *testing.T) {
	var f models.Flag
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &f))
}

func TestPromotionActiveAtIsInclusive(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	p := models.Promotion{Active: true, StartDate: start, EndDate: end}

	assert.True(t, p.ActiveAt(start))
	assert.True(t, p.ActiveAt(end))
	assert.True(t, p.ActiveAt(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.ActiveAt(start.Add(-time.Nanosecond)))
	assert.False(t, p.ActiveAt(end.Add(time.Nanosecond)))

	p.Active = false
	assert.False(t, p.ActiveAt(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
}
