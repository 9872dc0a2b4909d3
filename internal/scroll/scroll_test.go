package scroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lokankara/giftstore/internal/store"
)

func TestTracker_SaveAndRestore(t *testing.T) {
	t.Parallel()

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	tracker := NewTracker(st)

	_, ok := tracker.Restore()
	assert.False(t, ok)

	require.NoError(t, tracker.Save(1280))
	offset, ok := tracker.Restore()
	require.True(t, ok)
	assert.Equal(t, 1280, offset)

	require.NoError(t, tracker.Save(0))
	offset, ok = tracker.Restore()
	require.True(t, ok)
	assert.Equal(t, 0, offset)
}
