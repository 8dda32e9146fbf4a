// Package session creates, stores and advances player games.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/erricrr/hf-togetherai-rpg/internal/storage"
	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
	"github.com/erricrr/hf-togetherai-rpg/pkg/world"
)

// ErrSessionNotFound is returned when no session exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// TurnRunner processes one player action against a game state.
type TurnRunner interface {
	Run(ctx context.Context, input string, history state.History, gs *state.GameState) (*turn.Result, error)
}

// CreateOptions picks the character for a new session. Empty fields use the manager's defaults.
type CreateOptions struct {
	Kingdom   string         `json:"kingdom,omitempty"`
	Town      string         `json:"town,omitempty"`
	Character string         `json:"character,omitempty"`
	Inventory map[string]int `json:"inventory,omitempty"`
}

// TurnResult is what a turn returns to a client.
type TurnResult struct {
	SessionID uuid.UUID
	Message   string
	Outcome   turn.Outcome
	Inventory state.Inventory
}

// Manager owns session lifecycle and runs turns one at a time per session.
type Manager struct {
	store    storage.Storage
	locker   Locker
	runner   TurnRunner
	world    *world.Definition
	defaults world.Selection
	logger   *slog.Logger
}

// NewManager creates a manager. A nil locker uses a LocalLocker.
func NewManager(store storage.Storage, locker Locker, runner TurnRunner, def *world.Definition, defaults world.Selection, logger *slog.Logger) *Manager {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		locker:   locker,
		runner:   runner,
		world:    def,
		defaults: defaults,
		logger:   logger,
	}
}

// World returns the world definition sessions are created from
func (m *Manager) World() *world.Definition {
	return m.world
}

// Create builds a new game from the world definition and saves it.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*state.Session, error) {
	sel := world.Selection{
		Kingdom:   firstNonEmpty(opts.Kingdom, m.defaults.Kingdom),
		Town:      firstNonEmpty(opts.Town, m.defaults.Town),
		Character: firstNonEmpty(opts.Character, m.defaults.Character),
	}

	gs, err := m.world.NewGameState(sel, opts.Inventory)
	if err != nil {
		return nil, err
	}

	s := state.NewSession(gs)
	if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Info("Session created",
		"session_id", s.ID,
		"character", sel.Character,
		"town", sel.Town)
	return s, nil
}

// Get loads a session
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	s, err := m.store.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete removes a session. It waits for any running turn so the turn
// cannot write the session back afterwards.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := m.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.logger.Info("Session deleted", "session_id", id)
	return nil
}

// Turn runs one player action. The exchange is recorded for the start and
// applied outcomes; a suppressed narrative leaves history untouched. On error
// nothing is saved.
func (m *Manager) Turn(ctx context.Context, id uuid.UUID, input string) (*TurnResult, error) {
	unlock, err := m.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := m.runner.Run(ctx, input, s.History, s.State)
	if err != nil {
		m.logger.Error("Turn failed", "session_id", id, "error", err)
		return nil, err
	}

	if res.Outcome != turn.OutcomeUnsafe {
		s.History = s.History.Append(input, res.Message)
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &TurnResult{
		SessionID: s.ID,
		Message:   res.Message,
		Outcome:   res.Outcome,
		Inventory: s.State.Inventory.Clone(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
