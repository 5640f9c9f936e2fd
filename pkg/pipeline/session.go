// Package pipeline turns a video plus its sampled detections into an
// annotated video and a per-frame tracking log.
package pipeline

import (
	"image"
	"log/slog"
	"maps"
	"slices"

	"github.com/Robogera/pitchtrack/pkg/annotate"
	"github.com/Robogera/pitchtrack/pkg/ball"
	"github.com/Robogera/pitchtrack/pkg/bytetrack"
	"github.com/Robogera/pitchtrack/pkg/detection"
	"github.com/Robogera/pitchtrack/pkg/indexed"
	"github.com/Robogera/pitchtrack/pkg/minimap"
	"github.com/Robogera/pitchtrack/pkg/person"
	"github.com/Robogera/pitchtrack/pkg/synapse"
	"gocv.io/x/gocv"
)

type Options struct {
	Upstream       bytetrack.Config
	Reid           person.Config
	MaxDistance    float64
	ClickThreshold float64
	TrailLength    int
	// nil disables the minimap
	Minimap *minimap.Projection
	Codecs  []string
}

func DefaultOptions() Options {
	projection := minimap.DefaultProjection()
	return Options{
		Upstream:       bytetrack.DefaultConfig(),
		Reid:           person.DefaultConfig(),
		MaxDistance:    person.DefaultMaxDistance,
		ClickThreshold: person.DefaultClickThreshold,
		TrailLength:    ball.DefaultTrailLength,
		Minimap:        &projection,
		Codecs:         []string{"avc1", "mp4v"},
	}
}

// Click on the preview, applied to the first frame at or after Time
type Click struct {
	At   image.Point
	Time float64
}

type Selection struct {
	Preset *person.Id
	Click  *Click
}

// Tracking state of one analysis run
type Session struct {
	opts       Options
	upstream   *bytetrack.Tracker
	people     *person.Tracker
	ball       *ball.Tracker
	minimap    *minimap.Generator
	identities map[bytetrack.TrackId]person.Id
	active     map[person.Id]struct{}
	click      *Click
	frame_size image.Point
	frame      int
	logger     *slog.Logger

	distinct        map[person.Id]struct{}
	ball_detections int
}

func NewSession(opts Options, fps float64, frame_size image.Point, sel Selection, logger *slog.Logger) *Session {
	upstream_cfg := opts.Upstream
	upstream_cfg.FrameRate = fps
	s := &Session{
		opts:       opts,
		upstream:   bytetrack.NewTracker(upstream_cfg),
		people:     person.NewTracker(opts.Reid),
		ball:       ball.NewTracker(opts.TrailLength),
		identities: make(map[bytetrack.TrackId]person.Id),
		active:     make(map[person.Id]struct{}),
		distinct:   make(map[person.Id]struct{}),
		click:      sel.Click,
		frame_size: frame_size,
		logger:     logger.With("component", "session"),
	}
	if opts.Minimap != nil {
		s.minimap = minimap.NewGenerator(*opts.Minimap)
	}
	if sel.Preset != nil {
		s.people.Select(*sel.Preset)
	}
	return s
}

func (s *Session) Close() {
	s.upstream.Close()
	if s.minimap != nil {
		s.minimap.Close()
	}
}

func (s *Session) People() *person.Tracker { return s.people }

// Per-frame reconciliation of upstream tracks with persistent identities.
// Returned slice is indexed like players
func (s *Session) identify(img *gocv.Mat, players []detection.Player) []*person.Id {
	ids := make([]*person.Id, len(players))
	used := make(map[person.Id]struct{})

	inputs := make([]bytetrack.Detection, len(players))
	for i, p := range players {
		inputs[i] = bytetrack.Detection{Box: p.Box(), Confidence: p.Confidence()}
	}
	assignments := s.upstream.Update(inputs)
	for _, track := range s.upstream.Removed() {
		delete(s.identities, track)
	}

	bind := func(i int, id person.Id) {
		ids[i] = &id
		used[id] = struct{}{}
		s.distinct[id] = struct{}{}
	}

	// the old track of a re-identified identity is stale
	rebind := func(track bytetrack.TrackId, id person.Id) {
		for other_track, other := range s.identities {
			if other == id {
				delete(s.identities, other_track)
			}
		}
		s.identities[track] = id
	}

	reidentify := func(p detection.Player) (person.Id, bool) {
		descriptor := s.people.Describe(img, p.Box())
		m, ok := s.people.Match(p.Center(), descriptor, s.frame, s.opts.MaxDistance)
		if !ok {
			return 0, false
		}
		s.logger.Debug("Identity", "id", m.Id, "frame", s.frame, "status", person.NewStatusReidentified(m))
		s.people.UpdateDescribed(m.Id, p.Center(), descriptor)
		return m.Id, true
	}

	// tracked detections first, so re-identification only sees leftovers
	for i, a := range assignments {
		if !a.Assigned {
			continue
		}
		p := players[i]
		id, known := s.identities[a.Track]
		if known {
			if _, taken := used[id]; taken {
				continue
			}
			s.people.Update(id, p.Center(), img, p.Box())
			bind(i, id)
			continue
		}
		id, ok := reidentify(p)
		if !ok {
			id = s.people.NextId()
			s.people.Update(id, p.Center(), img, p.Box())
			s.logger.Debug("Identity", "id", id, "frame", s.frame, "status", person.NewStatusNew(p.Center()))
		}
		rebind(a.Track, id)
		bind(i, id)
	}

	for i, a := range assignments {
		if a.Assigned && ids[i] != nil {
			continue
		}
		if id, ok := reidentify(players[i]); ok {
			// carried over once the track is confirmed
			if a.Tentative {
				rebind(a.Track, id)
			}
			bind(i, id)
		}
	}

	for _, id := range slices.Sorted(maps.Keys(s.active)) {
		if _, ok := used[id]; ok {
			continue
		}
		if s.people.MarkInactive(id, s.frame) {
			last, _ := s.people.Identity(id)
			pos, _ := last.LastPosition()
			s.logger.Debug("Identity", "id", id, "frame", s.frame, "status", person.NewStatusInactive(pos, s.frame))
		}
	}
	for _, id := range s.people.Expire(s.frame) {
		s.logger.Debug("Identity", "id", id, "status", person.NewStatusExpired(s.frame))
	}
	s.active = used
	return ids
}

// Tracks, renders and logs one decoded frame in place
func (s *Session) Step(in indexed.Indexed[*gocv.Mat], predictions []detection.Prediction) (synapse.Record, []annotate.PlayerMarker) {
	img := in.Value()
	s.frame = int(in.Id())
	bounds := image.Rectangle{Max: s.frame_size}

	dets := detection.ClassifyAll(predictions, bounds)
	groups := detection.Partition(dets)
	ids := s.identify(img, groups.Players)

	// detection index -> identity
	by_detection := make(map[int]person.Id, len(ids))
	var positions []person.Position
	for i, id := range ids {
		if id == nil {
			continue
		}
		by_detection[groups.PlayerIndices[i]] = *id
		positions = append(positions, person.Position{Id: *id, Point: groups.Players[i].Center()})
	}

	if s.click != nil && in.Seconds() >= s.click.Time {
		selected, ok := s.people.HandleClick(s.click.At, positions, s.opts.ClickThreshold)
		s.logger.Info("Click", "at", s.click.At, "frame", s.frame, "selected", selected, "ok", ok)
		s.click = nil
	}

	var ball_position *image.Point
	if groups.Ball != nil {
		c := groups.Ball.Center()
		ball_position = &c
		s.ball_detections++
	}
	s.ball.Update(optional(ball_position))

	s.ball.DrawTrajectory(img)
	markers := annotate.Frame(img, dets, func(i int) bool {
		id, ok := by_detection[i]
		return ok && s.people.IsSelected(id)
	})

	if s.minimap != nil {
		points := make([]image.Point, len(positions))
		for i, p := range positions {
			points[i] = p.Point
		}
		field := s.minimap.Render(points, ball_position, s.frame_size)
		if err := s.minimap.Overlay(img, field); err != nil {
			s.logger.Warn("Can't draw minimap", "frame", s.frame, "err", err)
		}
		field.Close()
	}

	exported := make([]*person.Exported, 0, len(positions))
	for _, p := range positions {
		exported = append(exported, &person.Exported{Id: p.Id, Position: [2]int{p.Point.X, p.Point.Y}})
	}
	return synapse.NewRecord(s.frame, in.Seconds(), exported, ball_position), markers
}

func optional(p *image.Point) (image.Point, bool) {
	if p == nil {
		return image.Point{}, false
	}
	return *p, true
}
