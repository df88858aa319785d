package changes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIsIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.Record(1, "|Color")
	tr.Record(1, "|Color")
	assert.Len(t, tr.Unstaged(), 1)
	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.IsOverridden(1, "|Color"))
	assert.False(t, tr.IsOverridden(2, "|Color"))
}

func TestStageAndUnstageKeepIndexConsistent(t *testing.T) {
	tr := NewTracker()
	tr.Record(1, "|Color")
	tr.Record(1, "|Size")

	require.True(t, tr.Stage(1, "|Color"))
	assert.False(t, tr.Stage(1, "|Color"))
	assert.False(t, tr.IsOverridden(1, "|Color"))
	assert.Equal(t, []Change{{Object: 1, Path: "|Color", Staged: true}}, tr.Staged())
	assert.Equal(t, []Change{{Object: 1, Path: "|Size"}}, tr.Unstaged())

	c, ok := tr.Lookup(1, "|Color")
	require.True(t, ok)
	assert.True(t, c.Staged)

	require.True(t, tr.Unstage(1, "|Color"))
	assert.True(t, tr.IsOverridden(1, "|Color"))
	assert.Empty(t, tr.Staged())
	assert.Len(t, tr.Unstaged(), 2)

	// recording a staged path must not duplicate it
	tr.Stage(1, "|Size")
	tr.Record(1, "|Size")
	assert.Len(t, tr.Staged(), 1)
	assert.Equal(t, 2, tr.Len())
}

func TestRemoveAndForget(t *testing.T) {
	tr := NewTracker()
	tr.Record(1, "|A")
	tr.Record(1, "|B")
	tr.Record(2, "|A")
	tr.Stage(1, "|B")

	assert.True(t, tr.Remove(1, "|B"))
	assert.False(t, tr.Remove(1, "|B"))
	_, ok := tr.Lookup(1, "|B")
	assert.False(t, ok)

	tr.Forget(1)
	assert.Equal(t, []Change{{Object: 2, Path: "|A"}}, tr.Unstaged())
	assert.Equal(t, 1, tr.Len())
}

func TestNilTrackerIsEmpty(t *testing.T) {
	var tr *Tracker
	assert.False(t, tr.IsOverridden(1, "|A"))
	assert.Nil(t, tr.Unstaged())
	assert.Equal(t, 0, tr.Len())
}
