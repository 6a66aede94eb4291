// Package session runs a multi-location scrape and exposes its lifecycle.
package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/models"
	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

// State is the session lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Paused
	Completed
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultTick bounds how long a wait point goes without observing a control call.
const DefaultTick = 100 * time.Millisecond

// Request is the user input that starts a run.
type Request struct {
	Term string
	// Locations is a comma-separated list.
	Locations string
	// MaxResults caps records per location; empty means no cap.
	MaxResults string
}

// Status is a point-in-time view of the session.
type Status struct {
	State          State
	Active         bool
	Term           string
	Location       string
	LocationIndex  int
	LocationCount  int
	CandidateIndex int
	ResultsCount   int
}

// Session holds the state of one scrape run. Control calls are safe from any
// goroutine; the run itself happens on a single goroutine.
type Session struct {
	mu sync.Mutex

	state     State
	term      string
	locations []string
	cap       int

	locIndex  int
	location  string
	candIndex int
	results   int

	tick     time.Duration
	onChange func(from, to State)
}

// New returns an Idle session.
func New() *Session {
	return &Session{tick: DefaultTick}
}

// WithTick overrides the wait-point polling period.
func (s *Session) WithTick(d time.Duration) *Session {
	if d > 0 {
		s.tick = d
	}
	return s
}

// Start validates req and moves the session to Running. It is allowed from
// Idle, Completed and Stopped.
func (s *Session) Start(req Request) error {
	term, locations, limit, err := validate(req)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running || s.state == Paused {
		return ErrAlreadyRunning
	}

	s.state = Running
	s.term = term
	s.locations = locations
	s.cap = limit
	s.locIndex = 0
	s.location = ""
	s.candIndex = 0
	return nil
}

func validate(req Request) (string, []string, int, error) {
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return "", nil, 0, &ValidationError{Field: "search term", Reason: "must not be empty"}
	}

	locations := models.SplitLocations(req.Locations)
	if len(locations) == 0 {
		return "", nil, 0, &ValidationError{Field: "locations", Reason: "at least one location is required"}
	}

	raw := strings.TrimSpace(req.MaxResults)
	if raw == "" {
		return term, locations, 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return "", nil, 0, &ValidationError{Field: "max results", Reason: "must be a positive integer"}
	}
	return term, locations, limit, nil
}

// Pause suspends a running session at its next wait point.
func (s *Session) Pause() error {
	if !s.move(Paused, func(st State) bool { return st == Running }) {
		return ErrInvalidTransition
	}
	return nil
}

// Resume continues a paused session.
func (s *Session) Resume() error {
	if !s.move(Running, func(st State) bool { return st == Paused }) {
		return ErrInvalidTransition
	}
	return nil
}

// Stop ends the session from any state. A running loop observes it at its
// next wait point.
func (s *Session) Stop() {
	s.move(Stopped, func(State) bool { return true })
}

// move switches to `to` when allowed(current) holds. The transition callback
// runs outside the lock.
func (s *Session) move(to State, allowed func(State) bool) bool {
	s.mu.Lock()
	from := s.state
	if !allowed(from) {
		s.mu.Unlock()
		return false
	}
	s.state = to
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil && from != to {
		fn(from, to)
	}
	return true
}

// observe installs the callback for pause, resume and stop transitions.
// nil removes it.
func (s *Session) observe(fn func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:          s.state,
		Active:         s.state == Running || s.state == Paused,
		Term:           s.term,
		Location:       s.location,
		LocationIndex:  s.locIndex,
		LocationCount:  len(s.locations),
		CandidateIndex: s.candIndex,
		ResultsCount:   s.results,
	}
}

// Checkpoint blocks while paused and returns wait.ErrStopped once stopped.
func (s *Session) Checkpoint(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch s.State() {
		case Stopped:
			return wait.ErrStopped
		case Paused:
			if err := wait.Sleep(ctx, s.tick); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Sleep waits for d of running time in ticks, so pause and stop take effect
// within one tick. Time spent paused does not count.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	remaining := d
	for {
		if err := s.Checkpoint(ctx); err != nil {
			return err
		}
		if remaining <= 0 {
			return nil
		}
		step := min(remaining, s.tick)
		if err := wait.Sleep(ctx, step); err != nil {
			return err
		}
		remaining -= step
	}
}

type plan struct {
	term      string
	locations []string
	cap       int
}

func (s *Session) plan() (plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running && s.state != Paused {
		return plan{}, false
	}
	return plan{term: s.term, locations: append([]string(nil), s.locations...), cap: s.cap}, true
}

func (s *Session) setLocation(i int, loc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locIndex = i
	s.location = loc
	s.candIndex = 0
}

func (s *Session) setCandidate(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candIndex = i
}

func (s *Session) setResults(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = n
}

// finish moves a run that was not stopped to Completed.
func (s *Session) finish() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Stopped {
		s.state = Completed
	}
	return s.state
}
