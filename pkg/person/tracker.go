package person

import (
	"image"
	"maps"
	"math"
	"slices"

	"github.com/Robogera/pitchtrack/pkg/feature"
	"gocv.io/x/gocv"
)

const (
	DefaultHistoryLength   = 30
	DefaultFeatureBankSize = 100
	DefaultInactiveTimeout = 300
	DefaultPredictionCap   = 10
	DefaultMaxDistance     = 200.0
	DefaultClickThreshold  = 30.0

	// share of the distance a perfect appearance match removes
	similarityWeight = 0.5
)

type Config struct {
	HistoryLength   int
	FeatureBankSize int
	// frames an inactive identity stays eligible for re-identification
	InactiveTimeout int
	// upper bound of frames worth of velocity used when extrapolating
	PredictionCap int
}

func DefaultConfig() Config {
	return Config{
		HistoryLength:   DefaultHistoryLength,
		FeatureBankSize: DefaultFeatureBankSize,
		InactiveTimeout: DefaultInactiveTimeout,
		PredictionCap:   DefaultPredictionCap,
	}
}

type Tracker struct {
	cfg           Config
	people        map[Id]*Identity
	inactive      map[Id]*snapshot
	next_id       Id
	selected      Id
	has_selection bool
	extract       func(gocv.Mat, image.Rectangle) feature.Descriptor
}

func NewTracker(cfg Config) *Tracker {
	if cfg.HistoryLength < 1 {
		cfg.HistoryLength = DefaultHistoryLength
	}
	if cfg.FeatureBankSize < 1 {
		cfg.FeatureBankSize = DefaultFeatureBankSize
	}
	if cfg.PredictionCap < 0 {
		cfg.PredictionCap = DefaultPredictionCap
	}
	return &Tracker{
		cfg:      cfg,
		people:   make(map[Id]*Identity),
		inactive: make(map[Id]*snapshot),
		next_id:  1,
		extract:  feature.Extract,
	}
}

// Allocates a fresh identity
func (t *Tracker) NextId() Id {
	id := t.next_id
	t.next_id++
	return id
}

func (t *Tracker) Identity(id Id) (*Identity, bool) {
	p, ok := t.people[id]
	return p, ok
}

func (t *Tracker) IsInactive(id Id) bool {
	_, ok := t.inactive[id]
	return ok
}

func (t *Tracker) TotalInactive() int { return len(t.inactive) }
func (t *Tracker) TotalPeople() int   { return len(t.people) }

func (t *Tracker) identity(id Id) *Identity {
	p, ok := t.people[id]
	if !ok {
		p = newIdentity(id, t.cfg.HistoryLength, t.cfg.FeatureBankSize)
		t.people[id] = p
		if id >= t.next_id {
			t.next_id = id + 1
		}
	}
	return p
}

// Appearance of box, nil unless the box lies fully inside the frame
func (t *Tracker) Describe(frame *gocv.Mat, box image.Rectangle) feature.Descriptor {
	if frame == nil || box.Empty() || box.Min.X < 0 || box.Min.Y < 0 ||
		box.Max.X >= frame.Cols() || box.Max.Y >= frame.Rows() {
		return nil
	}
	return t.extract(*frame, box)
}

// Records a new position of id. When a frame is given and the box lies
// fully inside it, an appearance feature is extracted into the bank.
// Updating an inactive identity reactivates it
func (t *Tracker) Update(id Id, position image.Point, frame *gocv.Mat, box image.Rectangle) {
	t.update(id, position, t.Describe(frame, box))
}

// Same as Update with an already extracted descriptor
func (t *Tracker) UpdateDescribed(id Id, position image.Point, descriptor feature.Descriptor) {
	t.update(id, position, descriptor)
}

func (t *Tracker) update(id Id, position image.Point, descriptor feature.Descriptor) {
	t.identity(id).push(position, descriptor)
	delete(t.inactive, id)
}

// Moves id into the inactive registry. Identities with no known
// position or no stored appearance are not eligible
func (t *Tracker) MarkInactive(id Id, frame int) bool {
	p, ok := t.people[id]
	if !ok {
		return false
	}
	last, ok := p.LastPosition()
	if !ok || p.features.Size() == 0 {
		return false
	}
	velocity, _ := p.Velocity()
	t.inactive[id] = &snapshot{
		last_position: last,
		velocity:      velocity,
		features:      p.Features(),
		last_seen:     frame,
	}
	return true
}

// Linear extrapolation of an inactive identity, capped at
// PredictionCap frames worth of velocity
func (t *Tracker) PredictPosition(id Id, frames_elapsed int) (image.Point, bool) {
	s, ok := t.inactive[id]
	if !ok {
		return image.Point{}, false
	}
	steps := max(0, min(frames_elapsed, t.cfg.PredictionCap))
	return s.last_position.Add(s.velocity.Mul(steps)), true
}

// Drops registry entries older than the inactive timeout
func (t *Tracker) Expire(current_frame int) []Id {
	var expired []Id
	for _, id := range slices.Sorted(maps.Keys(t.inactive)) {
		if current_frame-t.inactive[id].last_seen > t.cfg.InactiveTimeout {
			delete(t.inactive, id)
			expired = append(expired, id)
		}
	}
	return expired
}

type Match struct {
	Id         Id
	Distance   float64
	Similarity float64
	Score      float64
}

// Finds the inactive identity that most plausibly produced a new detection.
// Candidates must be closer than max_distance to their predicted position;
// among them the lowest distance*(1 - similarity/2) wins
func (t *Tracker) MatchNewDetection(position image.Point, descriptor feature.Descriptor, current_frame int, max_distance float64) (Id, bool) {
	m, ok := t.Match(position, descriptor, current_frame, max_distance)
	return m.Id, ok
}

// Same as MatchNewDetection with the winning figures attached
func (t *Tracker) Match(position image.Point, descriptor feature.Descriptor, current_frame int, max_distance float64) (Match, bool) {
	t.Expire(current_frame)

	best := Match{Score: math.Inf(1)}
	found := false
	for _, id := range slices.Sorted(maps.Keys(t.inactive)) {
		s := t.inactive[id]
		predicted, _ := t.PredictPosition(id, current_frame-s.last_seen)
		dist := distance(position, predicted)
		if dist >= max_distance {
			continue
		}
		similarity := feature.BestMatch(descriptor, s.features)
		score := dist * (1 - similarity*similarityWeight)
		if score < best.Score {
			best = Match{Id: id, Distance: dist, Similarity: similarity, Score: score}
			found = true
		}
	}
	return best, found
}

func (t *Tracker) Select(id Id) {
	t.selected, t.has_selection = id, true
}

func (t *Tracker) Deselect() {
	t.selected, t.has_selection = 0, false
}

func (t *Tracker) IsSelected(id Id) bool {
	return t.has_selection && t.selected == id
}

func (t *Tracker) Selected() (Id, bool) {
	return t.selected, t.has_selection
}

// Selects the identity nearest to the click within threshold. Clicking the
// selected identity again clears the selection, as does a click that
// lands near nobody. Ties go to the first position in the slice
func (t *Tracker) HandleClick(click image.Point, positions []Position, threshold float64) (Id, bool) {
	var closest Id
	found := false
	min_distance := math.Inf(1)
	for _, p := range positions {
		if dist := distance(click, p.Point); dist < min_distance && dist < threshold {
			min_distance = dist
			closest = p.Id
			found = true
		}
	}

	switch {
	case !found:
		t.Deselect()
	case t.IsSelected(closest):
		t.Deselect()
	default:
		t.Select(closest)
	}
	return t.Selected()
}
