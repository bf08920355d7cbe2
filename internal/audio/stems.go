package audio

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// StemSet plays a main track and optional stems in lockstep. The main track
// is authoritative: its position is the experience's clock, and only its
// failure to start is an error. Stem failures degrade the set.
type StemSet struct {
	mu       sync.Mutex
	main     Track
	stems    []Track
	mainOnly bool
	logger   *log.Logger

	reactive bool
	retried  bool
	degraded []string

	// OnDegraded is called once per stem that fails to start.
	OnDegraded func(name string, err error)
}

// NewStemSet groups tracks. With mainOnly the stems are kept for seeking but
// never started, matching the reduced mobile mix.
func NewStemSet(main Track, stems []Track, mainOnly bool, logger *log.Logger) (*StemSet, error) {
	if main == nil {
		return nil, ErrNoTrack
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StemSet{main: main, stems: stems, mainOnly: mainOnly, logger: logger}, nil
}

// PlayAll starts every track. It returns an error wrapping ErrMainTrack when
// the main track does not start; the set then stays silent until
// OnInteraction retries.
func (s *StemSet) PlayAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAllLocked()
}

func (s *StemSet) playAllLocked() error {
	if err := s.main.Play(); err != nil {
		s.logger.Printf("playback failed: %s: %v", s.main.Name(), err)
		return fmt.Errorf("%w: %s: %w", ErrMainTrack, s.main.Name(), err)
	}
	s.reactive = true
	if s.mainOnly {
		return nil
	}
	pos := s.main.Position()
	s.degraded = s.degraded[:0]
	for _, st := range s.stems {
		if err := st.Seek(pos); err != nil && !errors.Is(err, errNotSeekable) {
			s.logger.Printf("stem %s: seek: %v", st.Name(), err)
		}
		if err := st.Play(); err != nil {
			s.logger.Printf("main playing, stem %s failed: %v", st.Name(), err)
			s.degraded = append(s.degraded, st.Name())
			if s.OnDegraded != nil {
				s.OnDegraded(st.Name(), err)
			}
		}
	}
	return nil
}

// OnInteraction is the user-gesture fallback. It retries PlayAll exactly once,
// and only when the main track never started. It reports whether a retry ran.
func (s *StemSet) OnInteraction() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reactive || s.retried {
		return false, nil
	}
	s.retried = true
	return true, s.playAllLocked()
}

// Reactive reports whether the main track has started at least once.
func (s *StemSet) Reactive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactive
}

// Degraded lists the stems that failed on the last PlayAll.
func (s *StemSet) Degraded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.degraded...)
}

// Seek moves every track to seconds. The main track's error is returned;
// stem errors are logged.
func (s *StemSet) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if err := s.main.Seek(seconds); err != nil {
		return fmt.Errorf("audio: seek %s: %w", s.main.Name(), err)
	}
	for _, st := range s.stems {
		if err := st.Seek(seconds); err != nil {
			s.logger.Printf("stem %s: seek: %v", st.Name(), err)
		}
	}
	return nil
}

// Position is the main track's audible position.
func (s *StemSet) Position() float64 { return s.main.Position() }

func (s *StemSet) Playing() bool { return s.main.Playing() }

func (s *StemSet) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.main.Pause()
	for _, st := range s.stems {
		st.Pause()
	}
}

// Restart rewinds every track and starts them again, for replay.
func (s *StemSet) Restart() error {
	if err := s.Seek(0); err != nil {
		return err
	}
	return s.PlayAll()
}

// Close closes every track and returns the errors joined.
func (s *StemSet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := []error{s.main.Close()}
	for _, st := range s.stems {
		errs = append(errs, st.Close())
	}
	return errors.Join(errs...)
}
