package addons

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashendes/welcome-home/internal/models"
)

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name string
		sel  models.AddOnSelection
		want string
	}{
		{name: "none", sel: models.AddOnSelection{}, want: "0.00"},
		{name: "turndown", sel: models.AddOnSelection{Turndown: true}, want: "75.00"},
		{name: "warm and lights", sel: models.AddOnSelection{WarmHome: true, LightsOn: true}, want: "65.00"},
		{name: "all", sel: models.AddOnSelection{WarmHome: true, LightsOn: true, Flowers: true, Turndown: true}, want: "240.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtotal(tt.sel).String())
		})
	}
}

func TestSelectorToggle(t *testing.T) {
	s := NewSelector()

	on, err := s.Toggle(models.AddOnFlowers)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, "100.00", s.SelectedSubtotal().String())

	on, err = s.Toggle(models.AddOnFlowers)
	require.NoError(t, err)
	assert.False(t, on)
	assert.True(t, s.SelectedSubtotal().IsZero())
}

func TestSelectorRejectsUnknownKey(t *testing.T) {
	s := NewSelector()
	_, err := s.Toggle("hotTub")
	assert.True(t, errors.Is(err, ErrUnknownAddOn))
	assert.Equal(t, models.AddOnSelection{}, s.Selection())
}

func TestFromMap(t *testing.T) {
	sel, err := FromMap(map[string]bool{"warmHome": true, "flowers": false})
	require.NoError(t, err)
	assert.Equal(t, models.AddOnSelection{WarmHome: true}, sel)

	_, err = FromMap(map[string]bool{"sauna": true})
	assert.ErrorIs(t, err, ErrUnknownAddOn)

	sel, err = FromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, models.AddOnSelection{}, sel)
}

func TestToMapHasAllKeys(t *testing.T) {
	m := ToMap(models.AddOnSelection{LightsOn: true})
	assert.Len(t, m, 4)
	assert.True(t, m[models.AddOnLightsOn])
	assert.False(t, m[models.AddOnTurndown])
}
