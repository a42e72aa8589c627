// Package session drives one table through loading, column inference,
// entity selection and series extraction, and records which step failed.
package session

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/popgraph/internal/roles"
	"github.com/KaramelBytes/popgraph/internal/selection"
	"github.com/KaramelBytes/popgraph/internal/series"
	"github.com/KaramelBytes/popgraph/internal/table"
)

// ErrInvalidTransition is returned when an operation is called in the wrong state.
var ErrInvalidTransition = errors.New("invalid transition")

// State is the position of a session in its workflow.
type State int

const (
	Unloaded State = iota
	Loaded
	RoleInferred
	EntitySelected
	SeriesReady
	LoadFailed
	InferenceFailed
	SelectionFailed
	EmptySeries
)

var stateNames = [...]string{
	Unloaded:        "unloaded",
	Loaded:          "loaded",
	RoleInferred:    "roles-inferred",
	EntitySelected:  "entity-selected",
	SeriesReady:     "series-ready",
	LoadFailed:      "load-failed",
	InferenceFailed: "inference-failed",
	SelectionFailed: "selection-failed",
	EmptySeries:     "empty-series",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether s is one of the failure states.
func (s State) Terminal() bool { return s >= LoadFailed }

// Settings gathers the options of every step.
type Settings struct {
	Table  table.Options
	Roles  roles.Options
	Series series.Options
}

// Session holds a table and everything derived from it.
type Session struct {
	cfg      Settings
	state    State
	table    *table.Table
	roles    *roles.Roles
	entities []string
	entity   string
	series   *series.Series
	err      error
}

func New(cfg Settings) *Session {
	return &Session{cfg: cfg}
}

func (s *Session) State() State { return s.state }
func (s *Session) Table() *table.Table { return s.table }
func (s *Session) Roles() *roles.Roles { return s.roles }
func (s *Session) Entity() string { return s.entity }
func (s *Session) Series() *series.Series { return s.series }
func (s *Session) Settings() Settings { return s.cfg }
func (s *Session) Err() error { return s.err }
func (s *Session) Entities() []string { return s.entities }

// Reset discards the table and returns to Unloaded.
func (s *Session) Reset() {
	*s = Session{cfg: s.cfg}
}

func (s *Session) fail(st State, err error) error {
	s.state = st
	s.err = err
	return err
}

// Load reads path. It can be called from any state and discards the previous table.
func (s *Session) Load(path string) error {
	s.Reset()
	t, err := table.Load(path, s.cfg.Table)
	if err != nil {
		return s.fail(LoadFailed, err)
	}
	s.table = t
	s.state = Loaded
	return nil
}

// LoadBytes parses an in-memory file named name.
func (s *Session) LoadBytes(name string, data []byte) error {
	s.Reset()
	t, err := table.Parse(name, data, s.cfg.Table)
	if err != nil {
		return s.fail(LoadFailed, err)
	}
	s.table = t
	s.state = Loaded
	return nil
}

// Infer picks the entity and year columns of the loaded table.
func (s *Session) Infer() error {
	if s.state != Loaded {
		return s.invalid("infer")
	}
	r, err := roles.Infer(s.table, s.cfg.Roles)
	if err != nil {
		return s.fail(InferenceFailed, err)
	}
	s.roles = r
	s.entities = selection.Entities(s.table, r.Entity.Index)
	s.state = RoleInferred
	return nil
}

func (s *Session) canSelect() bool {
	switch s.state {
	case RoleInferred, EntitySelected, SeriesReady, SelectionFailed, EmptySeries:
		return s.roles != nil
	}
	return false
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidTransition, op, s.state)
}

// Select resolves input against the entity list. An ambiguous input leaves
// the session in RoleInferred and returns the candidates without error.
// Select is allowed again after a failed selection or a finished series.
func (s *Session) Select(input string) (selection.Resolution, error) {
	if !s.canSelect() {
		return selection.Resolution{}, s.invalid("select")
	}
	s.entity, s.series, s.err = "", nil, nil
	res, err := selection.Resolve(s.entities, input)
	if err != nil {
		return res, s.fail(SelectionFailed, err)
	}
	if res.Ambiguous() {
		s.state = RoleInferred
		return res, nil
	}
	s.entity = res.Entity
	s.state = EntitySelected
	return res, nil
}

// Choose settles an ambiguous selection by number.
func (s *Session) Choose(matches []string, input string) (string, error) {
	if !s.canSelect() {
		return "", s.invalid("choose")
	}
	e, err := selection.Choose(matches, input)
	if err != nil {
		return "", s.fail(SelectionFailed, err)
	}
	s.entity = e
	s.err = nil
	s.state = EntitySelected
	return e, nil
}

// Extract builds the series of the selected entity. On EmptySeries the
// partial series stays available through Series for diagnostics.
func (s *Session) Extract() (*series.Series, error) {
	if s.state != EntitySelected {
		return nil, s.invalid("extract")
	}
	ser, err := series.Extract(s.table, s.roles, s.entity, s.cfg.Series)
	s.series = ser
	if err != nil {
		if errors.Is(err, series.ErrEmptySeries) {
			return ser, s.fail(EmptySeries, err)
		}
		return ser, s.fail(SelectionFailed, err)
	}
	s.state = SeriesReady
	return ser, nil
}

// Kind names the category of err for user-facing messages.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, table.ErrNotFound):
		return "NotFound"
	case errors.Is(err, table.ErrMalformedInput):
		return "MalformedInput"
	case errors.Is(err, roles.ErrNoEntityColumn):
		return "NoEntityColumn"
	case errors.Is(err, roles.ErrNoYearColumns):
		return "NoYearColumns"
	case errors.Is(err, selection.ErrNoMatch):
		return "NoMatch"
	case errors.Is(err, selection.ErrInvalidSelection):
		return "InvalidSelection"
	case errors.Is(err, series.ErrEmptySeries):
		return "EmptySeries"
	case errors.Is(err, series.ErrInvalidColumn):
		return "InvalidColumn"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	default:
		return "Internal"
	}
}
