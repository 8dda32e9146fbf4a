package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erricrr/hf-togetherai-rpg/internal/storage"
	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
	"github.com/erricrr/hf-togetherai-rpg/pkg/world"
)

func testWorld() *world.Definition {
	return &world.Definition{
		Name:        "Testland",
		Description: "A small test world.",
		Start:       "You wake in a quiet village.",
		Kingdoms: map[string]world.Kingdom{
			"North": {
				Description: "Cold hills.",
				Towns: map[string]world.Town{
					"Frost": {
						Description: "A mining town.",
						NPCs: map[string]world.NPC{
							"Ada": {Description: "A miner."},
						},
					},
				},
			},
		},
	}
}

var testDefaults = world.Selection{Kingdom: "North", Town: "Frost", Character: "Ada"}

// fakeRunner applies a canned result and optional item updates.
type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	result  *turn.Result
	updates state.Inventory
	err     error
	delay   time.Duration
	active  atomic.Int32
	overlap atomic.Bool
}

func (f *fakeRunner) Run(ctx context.Context, input string, history state.History, gs *state.GameState) (*turn.Result, error) {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		for k, v := range f.updates {
			gs.Inventory[k] = v
		}
		return nil, f.err
	}
	if input == turn.StartCommand {
		return &turn.Result{Message: gs.Start, Outcome: turn.OutcomeStart}, nil
	}
	for k, v := range f.updates {
		gs.Inventory[k] = v
	}
	return f.result, nil
}

func newTestManager(runner TurnRunner) (*Manager, *storage.MemoryStorage) {
	store := storage.NewMemoryStorage()
	return NewManager(store, nil, runner, testWorld(), testDefaults, nil), store
}

func TestManager_CreateAndGet(t *testing.T) {
	m, store := newTestManager(&fakeRunner{})
	ctx := context.Background()

	s, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "A miner.", s.State.Character)
	assert.Equal(t, world.DefaultInventory(), s.State.Inventory)
	assert.Equal(t, 1, store.Count())

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.State.Start, got.State.Start)
}

func TestManager_CreateWithInventory(t *testing.T) {
	m, _ := newTestManager(&fakeRunner{})
	s, err := m.Create(context.Background(), CreateOptions{Inventory: map[string]int{"rope": 2, "broken": 0}})
	require.NoError(t, err)
	assert.Equal(t, state.Inventory{"rope": 2}, s.State.Inventory)
}

func TestManager_CreateUnknownCharacter(t *testing.T) {
	m, store := newTestManager(&fakeRunner{})
	_, err := m.Create(context.Background(), CreateOptions{Character: "Nobody"})
	assert.ErrorIs(t, err, world.ErrUnknownCharacter)
	assert.Equal(t, 0, store.Count())
}

func TestManager_GetAndDeleteMissing(t *testing.T) {
	m, _ := newTestManager(&fakeRunner{})
	_, err := m.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(context.Background(), uuid.New()), ErrSessionNotFound)
}

func TestManager_Delete(t *testing.T) {
	m, store := newTestManager(&fakeRunner{})
	s, err := m.Create(context.Background(), CreateOptions{})
	require.NoError(t, err)
	require.NoError(t, m.Delete(context.Background(), s.ID))
	assert.Equal(t, 0, store.Count())
}

func TestManager_TurnStartRecordsHistory(t *testing.T) {
	m, _ := newTestManager(&fakeRunner{})
	ctx := context.Background()
	s, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)

	res, err := m.Turn(ctx, s.ID, turn.StartCommand)
	require.NoError(t, err)
	assert.Equal(t, "You wake in a quiet village.", res.Message)
	assert.Equal(t, turn.OutcomeStart, res.Outcome)

	saved, _ := m.Get(ctx, s.ID)
	require.Len(t, saved.History, 1)
	assert.Equal(t, state.Exchange{User: turn.StartCommand, Assistant: "You wake in a quiet village."}, saved.History[0])
}

func TestManager_TurnAppliedPersistsInventory(t *testing.T) {
	runner := &fakeRunner{
		result:  &turn.Result{Message: "You find a rope.\nInventory: rope +1", Outcome: turn.OutcomeApplied},
		updates: state.Inventory{"rope": 1},
	}
	m, _ := newTestManager(runner)
	ctx := context.Background()
	s, _ := m.Create(ctx, CreateOptions{})

	res, err := m.Turn(ctx, s.ID, "search the cellar")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inventory["rope"])

	saved, _ := m.Get(ctx, s.ID)
	assert.Equal(t, 1, saved.State.Inventory["rope"])
	require.Len(t, saved.History, 1)
	assert.Equal(t, "search the cellar", saved.History[0].User)
}

func TestManager_TurnUnsafeSkipsHistory(t *testing.T) {
	runner := &fakeRunner{result: &turn.Result{Message: turn.InvalidOutputMessage, Outcome: turn.OutcomeUnsafe}}
	m, _ := newTestManager(runner)
	ctx := context.Background()
	s, _ := m.Create(ctx, CreateOptions{})

	res, err := m.Turn(ctx, s.ID, "do something bad")
	require.NoError(t, err)
	assert.Equal(t, turn.InvalidOutputMessage, res.Message)

	saved, _ := m.Get(ctx, s.ID)
	assert.Empty(t, saved.History)
}

func TestManager_TurnErrorSavesNothing(t *testing.T) {
	runner := &fakeRunner{err: errors.New("narrator down"), updates: state.Inventory{"gold": 100}}
	m, _ := newTestManager(runner)
	ctx := context.Background()
	s, _ := m.Create(ctx, CreateOptions{})

	_, err := m.Turn(ctx, s.ID, "look")
	require.Error(t, err)

	saved, _ := m.Get(ctx, s.ID)
	assert.Equal(t, 5, saved.State.Inventory["gold"])
	assert.Empty(t, saved.History)
}

func TestManager_TurnMissingSession(t *testing.T) {
	m, _ := newTestManager(&fakeRunner{})
	_, err := m.Turn(context.Background(), uuid.New(), "look")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_TurnsAreSerializedPerSession(t *testing.T) {
	runner := &fakeRunner{
		result: &turn.Result{Message: "ok", Outcome: turn.OutcomeApplied},
		delay:  10 * time.Millisecond,
	}
	m, _ := newTestManager(runner)
	ctx := context.Background()
	s, _ := m.Create(ctx, CreateOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Turn(ctx, s.ID, "wait")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, runner.overlap.Load(), "turns for one session must not overlap")
	saved, _ := m.Get(ctx, s.ID)
	assert.Len(t, saved.History, 5, "no turn should be lost")
}

func TestManager_DeleteWaitsForRunningTurn(t *testing.T) {
	runner := &fakeRunner{
		result: &turn.Result{Message: "You dig.", Outcome: turn.OutcomeApplied},
		delay:  200 * time.Millisecond,
	}
	m, store := newTestManager(runner)
	ctx := context.Background()

	s, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)

	turnErr := make(chan error, 1)
	go func() {
		_, err := m.Turn(ctx, s.ID, "dig")
		turnErr <- err
	}()

	require.Eventually(t, func() bool { return runner.active.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, m.Delete(ctx, s.ID))
	require.NoError(t, <-turnErr)

	loaded, err := store.LoadSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded, "turn must not resurrect a deleted session")

	_, err = m.Turn(ctx, s.ID, "dig")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, m.locker.(*LocalLocker).Len())
}
