// Package roster edits the agent list of one training session. Every change is
// applied to the local rows first and then sent to the server; a failed request
// restores the rows as they were before the change.
package roster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/maritime-school/training-admin/internal/forms"
	"github.com/maritime-school/training-admin/internal/models"
)

var (
	ErrNotLoaded       = errors.New("roster not loaded")
	ErrBusy            = errors.New("another roster change is in progress")
	ErrRowNotFound     = errors.New("roster row not found")
	ErrSessionFull     = errors.New("session is full")
	ErrAlreadyEnrolled = errors.New("agent already enrolled in this session")
)

// Store is the server side of the roster. *client.Client implements it.
type Store interface {
	Roster(ctx context.Context, sessionID uint) (*models.SessionRoster, error)
	AddAgent(ctx context.Context, req models.AddSessionAgentRequest) (*models.AgentFormation, error)
	UpdateSessionAgent(ctx context.Context, id uint, req models.UpdateSessionAgentRequest) (*models.AgentFormation, error)
	ConfirmSessionAgent(ctx context.Context, id uint) (*models.AgentFormation, error)
	RemoveSessionAgent(ctx context.Context, id uint) error
}

type MutationState int

const (
	Pending MutationState = iota
	Committed
	RolledBack
)

func (s MutationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("MutationState(%d)", int(s))
	}
}

type MutationKind string

const (
	MutationAdd      MutationKind = "add"
	MutationReplace  MutationKind = "replace"
	MutationResultat MutationKind = "resultat"
	MutationMoyenne  MutationKind = "moyenne"
	MutationConfirm  MutationKind = "confirm"
	MutationRemove   MutationKind = "remove"
)

// Mutation records one change and how it ended.
type Mutation struct {
	Kind  MutationKind
	RowID uint
	State MutationState
	Err   error
}

// Editor holds the optimistic view of a session roster. Only one change is in
// flight at a time.
type Editor struct {
	store     Store
	sessionID uint

	mu       sync.Mutex
	session  *models.SessionFormation
	capacity int
	rows     []models.AgentFormation
	busy     bool
	inflight Mutation
	deletes  map[uint]*forms.DeleteButton
	history  []Mutation
}

func NewEditor(store Store, sessionID uint) *Editor {
	return &Editor{
		store:     store,
		sessionID: sessionID,
		deletes:   make(map[uint]*forms.DeleteButton),
	}
}

// Load replaces the local rows with the server roster.
func (e *Editor) Load(ctx context.Context) error {
	r, err := e.store.Roster(ctx, e.sessionID)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = r.Session
	e.capacity = r.Capacity
	e.rows = make([]models.AgentFormation, 0, len(r.Agents))
	for _, a := range r.Agents {
		e.rows = append(e.rows, *a)
	}
	e.deletes = make(map[uint]*forms.DeleteButton)
	return nil
}

// Rows returns a copy of the current, possibly optimistic, rows.
func (e *Editor) Rows() []models.AgentFormation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.rows)
}

// Remaining is the number of free places left in the session.
func (e *Editor) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return max(e.capacity-len(e.rows), 0)
}

// Busy reports whether a change is waiting for the server.
func (e *Editor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// InFlight returns the change waiting for the server, if any.
func (e *Editor) InFlight() (Mutation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight, e.busy
}

func (e *Editor) History() []Mutation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// Add enrolls agent with the session's formation and dates. The new row has a
// zero ID until the server confirms it.
func (e *Editor) Add(ctx context.Context, agent models.Agent) (Mutation, error) {
	return e.mutate(ctx, MutationAdd, 0,
		func(rows []models.AgentFormation) ([]models.AgentFormation, error) {
			if len(rows) >= e.capacity {
				return nil, ErrSessionFull
			}
			if slices.ContainsFunc(rows, func(r models.AgentFormation) bool { return r.AgentID == agent.ID }) {
				return nil, ErrAlreadyEnrolled
			}
			sessionID := e.sessionID
			return append(rows, models.AgentFormation{
				AgentID:            agent.ID,
				FormationID:        e.session.FormationID,
				SessionFormationID: &sessionID,
				DateDebut:          e.session.DateDebut,
				DateFin:            e.session.DateFin,
				Agent:              &agent,
			}), nil
		},
		func(ctx context.Context) (*models.AgentFormation, error) {
			return e.store.AddAgent(ctx, models.AddSessionAgentRequest{SessionID: e.sessionID, AgentID: agent.ID})
		},
		func(rows []models.AgentFormation, saved *models.AgentFormation) []models.AgentFormation {
			for i := range rows {
				if rows[i].ID == 0 && rows[i].AgentID == saved.AgentID {
					if saved.Agent == nil {
						saved.Agent = rows[i].Agent
					}
					rows[i] = *saved
				}
			}
			return rows
		},
	)
}

// ReplaceAgent swaps the agent of a row in place.
func (e *Editor) ReplaceAgent(ctx context.Context, rowID uint, agent models.Agent) (Mutation, error) {
	return e.update(ctx, MutationReplace, rowID,
		func(row *models.AgentFormation, rows []models.AgentFormation) error {
			if row.AgentID == agent.ID {
				return nil
			}
			if slices.ContainsFunc(rows, func(r models.AgentFormation) bool { return r.AgentID == agent.ID }) {
				return ErrAlreadyEnrolled
			}
			row.AgentID = agent.ID
			row.Agent = &agent
			return nil
		},
		func(ctx context.Context) (*models.AgentFormation, error) {
			id := agent.ID
			return e.store.UpdateSessionAgent(ctx, rowID, models.UpdateSessionAgentRequest{AgentID: &id})
		},
	)
}

// SetResultat changes the outcome of a confirmed participant.
func (e *Editor) SetResultat(ctx context.Context, rowID uint, resultat string) (Mutation, error) {
	return e.update(ctx, MutationResultat, rowID,
		func(row *models.AgentFormation, _ []models.AgentFormation) error {
			row.Resultat = &resultat
			return nil
		},
		func(ctx context.Context) (*models.AgentFormation, error) {
			return e.store.UpdateSessionAgent(ctx, rowID, models.UpdateSessionAgentRequest{Resultat: &resultat})
		},
	)
}

func (e *Editor) SetMoyenne(ctx context.Context, rowID uint, moyenne float64) (Mutation, error) {
	return e.update(ctx, MutationMoyenne, rowID,
		func(row *models.AgentFormation, _ []models.AgentFormation) error {
			row.Moyenne = &moyenne
			return nil
		},
		func(ctx context.Context) (*models.AgentFormation, error) {
			return e.store.UpdateSessionAgent(ctx, rowID, models.UpdateSessionAgentRequest{Moyenne: &moyenne})
		},
	)
}

// Confirm marks a pending participant with the default outcome.
func (e *Editor) Confirm(ctx context.Context, rowID uint) (Mutation, error) {
	return e.update(ctx, MutationConfirm, rowID,
		func(row *models.AgentFormation, _ []models.AgentFormation) error {
			resultat := models.ResultatAbsent
			row.Resultat = &resultat
			return nil
		},
		func(ctx context.Context) (*models.AgentFormation, error) {
			return e.store.ConfirmSessionAgent(ctx, rowID)
		},
	)
}

// Remove deletes a row on the second call for the same row; the first call
// only arms the row's delete button and reports removed=false.
func (e *Editor) Remove(ctx context.Context, rowID uint) (removed bool, m Mutation, err error) {
	e.mu.Lock()
	if !slices.ContainsFunc(e.rows, func(r models.AgentFormation) bool { return r.ID == rowID }) {
		e.mu.Unlock()
		return false, Mutation{}, ErrRowNotFound
	}
	btn, ok := e.deletes[rowID]
	if !ok {
		btn = &forms.DeleteButton{}
		e.deletes[rowID] = btn
	}
	e.mu.Unlock()

	if !btn.Click() {
		return false, Mutation{}, nil
	}

	m, err = e.mutate(ctx, MutationRemove, rowID,
		func(rows []models.AgentFormation) ([]models.AgentFormation, error) {
			return slices.DeleteFunc(rows, func(r models.AgentFormation) bool { return r.ID == rowID }), nil
		},
		func(ctx context.Context) (*models.AgentFormation, error) {
			return nil, e.store.RemoveSessionAgent(ctx, rowID)
		},
		nil,
	)
	if err != nil {
		return false, m, err
	}

	e.mu.Lock()
	delete(e.deletes, rowID)
	e.mu.Unlock()
	return true, m, nil
}

// CancelRemove disarms a row's delete button.
func (e *Editor) CancelRemove(rowID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if btn, ok := e.deletes[rowID]; ok {
		btn.Disarm()
	}
}

func (e *Editor) update(
	ctx context.Context,
	kind MutationKind,
	rowID uint,
	edit func(row *models.AgentFormation, rows []models.AgentFormation) error,
	call func(ctx context.Context) (*models.AgentFormation, error),
) (Mutation, error) {
	return e.mutate(ctx, kind, rowID,
		func(rows []models.AgentFormation) ([]models.AgentFormation, error) {
			i := slices.IndexFunc(rows, func(r models.AgentFormation) bool { return r.ID == rowID })
			if i < 0 {
				return nil, ErrRowNotFound
			}
			if err := edit(&rows[i], rows); err != nil {
				return nil, err
			}
			return rows, nil
		},
		call,
		func(rows []models.AgentFormation, saved *models.AgentFormation) []models.AgentFormation {
			for i := range rows {
				if rows[i].ID == saved.ID {
					if saved.Agent == nil {
						saved.Agent = rows[i].Agent
					}
					rows[i] = *saved
				}
			}
			return rows
		},
	)
}

// mutate applies a change locally, calls the server without holding the lock,
// then commits the server's row or restores the snapshot.
func (e *Editor) mutate(
	ctx context.Context,
	kind MutationKind,
	rowID uint,
	apply func(rows []models.AgentFormation) ([]models.AgentFormation, error),
	call func(ctx context.Context) (*models.AgentFormation, error),
	reconcile func(rows []models.AgentFormation, saved *models.AgentFormation) []models.AgentFormation,
) (Mutation, error) {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return Mutation{}, ErrNotLoaded
	}
	if e.busy {
		e.mu.Unlock()
		return Mutation{}, ErrBusy
	}

	snapshot := slices.Clone(e.rows)
	next, err := apply(slices.Clone(e.rows))
	if err != nil {
		e.mu.Unlock()
		return Mutation{Kind: kind, RowID: rowID, State: RolledBack, Err: err}, err
	}
	e.rows = next
	e.busy = true
	e.inflight = Mutation{Kind: kind, RowID: rowID, State: Pending}
	e.mu.Unlock()

	saved, err := call(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	e.inflight = Mutation{}

	m := Mutation{Kind: kind, RowID: rowID}
	if err != nil {
		e.rows = snapshot
		m.State = RolledBack
		m.Err = err
		e.history = append(e.history, m)
		return m, err
	}

	if saved != nil && reconcile != nil {
		e.rows = reconcile(e.rows, saved)
		if m.RowID == 0 {
			m.RowID = saved.ID
		}
	}
	m.State = Committed
	e.history = append(e.history, m)
	return m, nil
}
