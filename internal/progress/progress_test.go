package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndicator_ToggleFlips(t *testing.T) {
	t.Parallel()

	ind := New()
	assert.False(t, ind.Visible())

	ind.Toggle()
	assert.True(t, ind.Visible())

	ind.Toggle()
	assert.False(t, ind.Visible())
}

func TestIndicator_SubscribeReplaysCurrentState(t *testing.T) {
	t.Parallel()

	ind := New()
	ind.Set(true)

	var got []bool
	cancel := ind.Subscribe(func(v bool) { got = append(got, v) })
	defer cancel()

	ind.Set(false)
	assert.Equal(t, []bool{true, false}, got)
}

func TestIndicator_NilSafe(t *testing.T) {
	t.Parallel()

	var ind *Indicator
	ind.Toggle()
	ind.Set(true)
	assert.False(t, ind.Visible())
}
