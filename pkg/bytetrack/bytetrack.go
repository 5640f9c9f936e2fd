// Package bytetrack is a short-horizon multi-object tracker: detections are
// associated to Kalman-predicted boxes by IoU in two stages, high confidence
// first and the leftovers against low confidence detections.
package bytetrack

import (
	"image"
	"maps"
	"slices"

	"github.com/Robogera/pitchtrack/pkg/assoc"
	"github.com/Robogera/pitchtrack/pkg/gmat"
	"github.com/Robogera/pitchtrack/pkg/kalman"
)

const (
	DefaultActivationThreshold = 0.15
	DefaultLostTrackBuffer     = 300
	DefaultMatchingThreshold   = 0.6
	DefaultFrameRate           = 30

	// detections below are noise
	lowThreshold = 0.1
	// margin over activation a detection needs to open a new track
	newTrackMargin = 0.1
	// 1-IoU limits for the low confidence and unconfirmed stages
	lowStageThreshold         = 0.5
	unconfirmedStageThreshold = 0.7

	procNoiseCov = 0.01
	measNoiseCov = 1
)

type TrackId uint64

type state int

const (
	tracked state = iota
	lost
)

type Config struct {
	ActivationThreshold float64
	// frames a lost track is kept at 30 fps
	LostTrackBuffer   int
	MatchingThreshold float64
	FrameRate         float64
}

func DefaultConfig() Config {
	return Config{
		ActivationThreshold: DefaultActivationThreshold,
		LostTrackBuffer:     DefaultLostTrackBuffer,
		MatchingThreshold:   DefaultMatchingThreshold,
		FrameRate:           DefaultFrameRate,
	}
}

type Detection struct {
	Box        image.Rectangle
	Confidence float64
}

// Assigned means a confirmed track owns the detection. Tentative means
// the detection opened a track that is confirmed on its next match
type Assignment struct {
	Track     TrackId
	Assigned  bool
	Tentative bool
}

type track struct {
	id         TrackId
	filter     *kalman.Filter
	size       image.Point
	state      state
	activated  bool
	last_frame int
	confidence float64
}

func newTrack(id TrackId, det Detection, frame int) *track {
	return &track{
		id:         id,
		filter:     kalman.NewFilter(center(det.Box), frame, procNoiseCov, measNoiseCov),
		size:       det.Box.Size(),
		last_frame: frame,
		confidence: det.Confidence,
	}
}

func (t *track) box() image.Rectangle {
	c := t.filter.State()
	corner := c.Sub(t.size.Div(2))
	return image.Rectangle{Min: corner, Max: corner.Add(t.size)}
}

func (t *track) update(det Detection, frame int) {
	t.filter.Update(center(det.Box), frame)
	t.size = det.Box.Size()
	t.state = tracked
	t.activated = true
	t.last_frame = frame
	t.confidence = det.Confidence
}

type Tracker struct {
	cfg           Config
	tracks        map[TrackId]*track
	frame         int
	next_id       TrackId
	max_time_lost int
	removed       []TrackId
}

func NewTracker(cfg Config) *Tracker {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	return &Tracker{
		cfg:           cfg,
		tracks:        make(map[TrackId]*track),
		next_id:       1,
		max_time_lost: int(cfg.FrameRate / DefaultFrameRate * float64(cfg.LostTrackBuffer)),
	}
}

func (tr *Tracker) Close() {
	for id, t := range tr.tracks {
		t.filter.Close()
		delete(tr.tracks, id)
	}
}

// Active tracks, i.e. confirmed and seen on the last update
func (tr *Tracker) Active() int {
	n := 0
	for _, t := range tr.tracks {
		if t.activated && t.state == tracked {
			n++
		}
	}
	return n
}

func (tr *Tracker) remove(id TrackId) {
	tr.tracks[id].filter.Close()
	delete(tr.tracks, id)
	tr.removed = append(tr.removed, id)
}

// Tracks dropped by the last update, ascending
func (tr *Tracker) Removed() []TrackId {
	out := slices.Clone(tr.removed)
	slices.Sort(out)
	return out
}

// Advances one frame. The result is indexed like dets; detections not
// backed by a confirmed track are left unassigned
func (tr *Tracker) Update(dets []Detection) []Assignment {
	tr.frame++
	tr.removed = tr.removed[:0]
	out := make([]Assignment, len(dets))

	var high, low []int
	for i, d := range dets {
		switch {
		case d.Confidence > tr.cfg.ActivationThreshold:
			high = append(high, i)
		case d.Confidence > lowThreshold:
			low = append(low, i)
		}
	}

	var confirmed, unconfirmed []TrackId
	for _, id := range slices.Sorted(maps.Keys(tr.tracks)) {
		t := tr.tracks[id]
		t.filter.Predict(tr.frame)
		if t.activated {
			confirmed = append(confirmed, id)
		} else {
			unconfirmed = append(unconfirmed, id)
		}
	}

	matched := make(map[TrackId]struct{})
	assign := func(pool []TrackId, idx []int, threshold float64) ([]TrackId, []int) {
		pairs := assoc.Associate(tr.costs(pool, idx, dets), threshold)
		used_rows := make(map[int]struct{}, len(pairs))
		used_cols := make(map[int]struct{}, len(pairs))
		for _, a := range pairs {
			t := tr.tracks[pool[a.Row]]
			t.update(dets[idx[a.Col]], tr.frame)
			matched[t.id] = struct{}{}
			out[idx[a.Col]] = Assignment{Track: t.id, Assigned: true}
			used_rows[a.Row] = struct{}{}
			used_cols[a.Col] = struct{}{}
		}
		var rest_pool []TrackId
		for r, id := range pool {
			if _, ok := used_rows[r]; !ok {
				rest_pool = append(rest_pool, id)
			}
		}
		var rest_idx []int
		for c, i := range idx {
			if _, ok := used_cols[c]; !ok {
				rest_idx = append(rest_idx, i)
			}
		}
		return rest_pool, rest_idx
	}

	// 1: every confirmed track, lost ones included, against high confidence
	rest_tracks, rest_high := assign(confirmed, high, tr.cfg.MatchingThreshold)

	// 2: tracks seen last frame against low confidence
	var recent []TrackId
	for _, id := range rest_tracks {
		if tr.tracks[id].state == tracked {
			recent = append(recent, id)
		}
	}
	assign(recent, low, lowStageThreshold)

	// 3: tentative tracks get one chance to be confirmed
	rest_unconfirmed, rest_high := assign(unconfirmed, rest_high, unconfirmedStageThreshold)
	for _, id := range rest_unconfirmed {
		tr.remove(id)
	}

	for id, t := range tr.tracks {
		if _, ok := matched[id]; ok || !t.activated {
			continue
		}
		t.state = lost
		if tr.frame-t.last_frame > tr.max_time_lost {
			tr.remove(id)
		}
	}

	for _, i := range rest_high {
		if dets[i].Confidence < tr.cfg.ActivationThreshold+newTrackMargin {
			continue
		}
		t := newTrack(tr.next_id, dets[i], tr.frame)
		tr.next_id++
		tr.tracks[t.id] = t
		// nothing to confirm against on the very first frame
		if tr.frame == 1 {
			t.activated = true
			out[i] = Assignment{Track: t.id, Assigned: true}
		} else {
			out[i] = Assignment{Track: t.id, Tentative: true}
		}
	}
	return out
}

func (tr *Tracker) costs(pool []TrackId, idx []int, dets []Detection) *gmat.Mat[float64] {
	m := gmat.NewMat[float64](len(pool), len(idx))
	for r, id := range pool {
		box := tr.tracks[id].box()
		for c, i := range idx {
			m.Set(r, c, 1-IoU(box, dets[i].Box))
		}
	}
	return m
}

func center(r image.Rectangle) image.Point {
	return r.Min.Add(r.Max).Div(2)
}

func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	area := func(r image.Rectangle) float64 {
		return float64(r.Dx()) * float64(r.Dy())
	}
	union := area(a) + area(b) - area(inter)
	if union <= 0 {
		return 0
	}
	return area(inter) / union
}
