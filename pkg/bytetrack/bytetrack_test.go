package bytetrack

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x, y int) image.Rectangle {
	return image.Rect(x, y, x+40, y+80)
}

func TestIoU(t *testing.T) {
	assert.InDelta(t, 1.0, IoU(box(0, 0), box(0, 0)), 1e-9)
	assert.Zero(t, IoU(box(0, 0), box(100, 0)))
	// half overlap: 20*80 / (2*3200 - 1600)
	assert.InDelta(t, 1.0/3, IoU(box(0, 0), box(20, 0)), 1e-9)
}

func TestFirstFrameAssignsEverything(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	defer tr.Close()

	out := tr.Update([]Detection{
		{Box: box(10, 10), Confidence: 0.9},
		{Box: box(300, 10), Confidence: 0.8},
		{Box: box(600, 10), Confidence: 0.05},
	})
	require.Len(t, out, 3)
	assert.True(t, out[0].Assigned)
	assert.True(t, out[1].Assigned)
	assert.NotEqual(t, out[0].Track, out[1].Track)
	assert.False(t, out[2].Assigned)
	assert.Equal(t, 2, tr.Active())
}

func TestKeepsIdentityWhileMoving(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	defer tr.Close()

	first := tr.Update([]Detection{{Box: box(100, 100), Confidence: 0.9}})
	require.True(t, first[0].Assigned)
	for frame := 1; frame < 20; frame++ {
		out := tr.Update([]Detection{{Box: box(100+5*frame, 100), Confidence: 0.9}})
		require.True(t, out[0].Assigned, "frame %d", frame)
		assert.Equal(t, first[0].Track, out[0].Track, "frame %d", frame)
	}
}

func TestLowConfidenceKeepsTrack(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	defer tr.Close()

	first := tr.Update([]Detection{{Box: box(100, 100), Confidence: 0.9}})
	out := tr.Update([]Detection{{Box: box(102, 100), Confidence: 0.12}})
	require.True(t, out[0].Assigned)
	assert.Equal(t, first[0].Track, out[0].Track)
}

func TestNewTrackNeedsConfirmation(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	defer tr.Close()

	first := tr.Update([]Detection{{Box: box(100, 100), Confidence: 0.9}})
	out := tr.Update([]Detection{
		{Box: box(100, 100), Confidence: 0.9},
		{Box: box(500, 100), Confidence: 0.9},
	})
	assert.True(t, out[0].Assigned)
	assert.False(t, out[1].Assigned)
	require.True(t, out[1].Tentative)
	tentative := out[1].Track

	out = tr.Update([]Detection{
		{Box: box(100, 100), Confidence: 0.9},
		{Box: box(500, 100), Confidence: 0.9},
	})
	require.True(t, out[1].Assigned)
	assert.False(t, out[1].Tentative)
	assert.Equal(t, tentative, out[1].Track)
	assert.NotEqual(t, first[0].Track, out[1].Track)
}

func TestLostTrackBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LostTrackBuffer = 3
	tr := NewTracker(cfg)
	defer tr.Close()

	first := tr.Update([]Detection{{Box: box(100, 100), Confidence: 0.9}})
	tr.Update(nil)
	tr.Update(nil)
	out := tr.Update([]Detection{{Box: box(100, 100), Confidence: 0.9}})
	require.True(t, out[0].Assigned)
	assert.Equal(t, first[0].Track, out[0].Track)

	for range 3 {
		tr.Update(nil)
		assert.Empty(t, tr.Removed())
	}
	tr.Update(nil)
	assert.Equal(t, []TrackId{first[0].Track}, tr.Removed())
	out = tr.Update([]Detection{{Box: box(100, 100), Confidence: 0.9}})
	assert.False(t, out[0].Assigned)
	assert.Zero(t, tr.Active())
}

func TestLostBufferScalesWithFrameRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameRate = 60
	tr := NewTracker(cfg)
	defer tr.Close()
	assert.Equal(t, 600, tr.max_time_lost)
}

func TestUnconfirmedTrackIsRemoved(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	defer tr.Close()

	tr.Update(nil)
	out := tr.Update([]Detection{{Box: box(300, 100), Confidence: 0.9}})
	require.True(t, out[0].Tentative)
	tr.Update(nil)
	assert.Equal(t, []TrackId{out[0].Track}, tr.Removed())
}
