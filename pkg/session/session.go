// Package session holds the mutable state of one visualization session.
//
// A session owns an immutable occupancy histogram for the lifetime of the
// process together with the two values a user can change at runtime: the
// brightness threshold and the brightness transform. Changing either
// re-extracts the point set from the histogram; the source bytes are never
// scanned again.
//
// # Usage
//
//	h, _ := ngram.Build(data, ngram.Dims2)
//	sess, err := session.New(h, session.Options{Threshold: 32})
//	if err != nil {
//	    return err
//	}
//	pts := sess.Points()
//
//	sess.Raise(1)      // threshold 33, point set re-derived
//	sess.SetThreshold(32)
//
// All methods are safe for concurrent use. The interactive explorer drives a
// session from a single goroutine; the HTTP server shares one across
// requests.
package session

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/points"
)

// ErrNoHistogram is returned by New when no histogram is supplied.
var ErrNoHistogram = errors.New("session requires a histogram")

// Options configures a new session.
type Options struct {
	Threshold uint8  // initial threshold
	Transform string // brightness transform name; empty selects the default
}

// Snapshot is a consistent view of the session at one point in time.
type Snapshot struct {
	ID        string
	Threshold uint8
	Transform string
	Points    []points.Point
	Elapsed   time.Duration // duration of the extraction that produced Points
}

// Session is one visualization session over a single histogram.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	hist      *ngram.Histogram
	extractor *points.Extractor
	transform string
	threshold uint8
	points    []points.Point
	levels    [256]int // cells per brightness level under transform
	elapsed   time.Duration
}

// New creates a session over h and performs the initial extraction.
func New(h *ngram.Histogram, opts Options) (*Session, error) {
	if h == nil {
		return nil, ErrNoHistogram
	}
	name := opts.Transform
	if name == "" {
		name = brightness.Default
	}
	tf, err := brightness.Lookup(name)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		hist:      h,
		extractor: points.NewExtractor(h, tf),
		transform: name,
		threshold: opts.Threshold,
	}
	s.levels = s.extractor.Levels()
	s.extract()
	return s, nil
}

// Histogram returns the session's histogram.
func (s *Session) Histogram() *ngram.Histogram { return s.hist }

// Threshold returns the active threshold.
func (s *Session) Threshold() uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// Transform returns the active transform name.
func (s *Session) Transform() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transform
}

// Points returns the current point set. Callers must not modify it.
func (s *Session) Points() []points.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points
}

// Snapshot returns the session state under a single lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:        s.ID,
		Threshold: s.threshold,
		Transform: s.transform,
		Points:    s.points,
		Elapsed:   s.elapsed,
	}
}

// Extractor returns the extractor bound to the active transform together
// with the transform's name.
func (s *Session) Extractor() (*points.Extractor, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extractor, s.transform
}

// Levels returns how many occupied cells sit on each brightness level under
// the active transform.
func (s *Session) Levels() [256]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels
}

// Preview returns how many points the session would show after moving the
// threshold by delta, without changing it.
func (s *Session) Preview(delta int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return points.CountFromLevels(s.levels, step(s.threshold, delta))
}

// SetThreshold sets the threshold and re-extracts if it changed.
// It reports whether the point set was re-derived.
func (s *Session) SetThreshold(t uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == s.threshold {
		return false
	}
	s.threshold = t
	s.extract()
	return true
}

// Raise increases the threshold by delta, saturating at 255.
func (s *Session) Raise(delta int) bool {
	return s.SetThreshold(step(s.Threshold(), delta))
}

// Lower decreases the threshold by delta, saturating at 0.
func (s *Session) Lower(delta int) bool {
	return s.SetThreshold(step(s.Threshold(), -delta))
}

// SetTransform switches the brightness transform and re-extracts. An empty
// name selects the default transform.
func (s *Session) SetTransform(name string) error {
	if name == "" {
		name = brightness.Default
	}
	tf, err := brightness.Lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.transform {
		return nil
	}
	s.transform = name
	s.extractor = points.NewExtractor(s.hist, tf)
	s.levels = s.extractor.Levels()
	s.extract()
	return nil
}

// extract re-derives the point set. Callers hold mu for writing.
func (s *Session) extract() {
	start := time.Now()
	s.points = s.extractor.Extract(s.threshold)
	s.elapsed = time.Since(start)
}

func step(t uint8, delta int) uint8 {
	v := int(t) + delta
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(v)
}
