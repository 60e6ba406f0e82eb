// internal/game/game_test.go
package game

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/cache"
	"github.com/jason-s-yu/klondike/service/internal/database"
	"github.com/jason-s-yu/klondike/service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances one second per call.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	svc   *Service
	store *database.MemoryStore
	hist  *cache.MemoryHistoryStore
	pub   *cache.MemoryPublisher
	owner uuid.UUID
}

// setupTestService wires a Service to in-memory stores with a quiet logger,
// a stepping clock and sequential seeds.
func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var seed uint64
	var seedMu sync.Mutex
	env := &testEnv{
		store: database.NewMemoryStore(),
		hist:  cache.NewMemoryHistoryStore(),
		pub:   &cache.MemoryPublisher{},
		owner: uuid.New(),
	}
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	env.svc = NewService(env.store, env.hist,
		WithPublisher(env.pub),
		WithLogger(logger),
		WithClock(clock.Now),
		WithSeedSource(func() uint64 {
			seedMu.Lock()
			defer seedMu.Unlock()
			seed++
			return seed
		}),
	)
	return env
}

// newGame creates a draw-one game for the test owner.
func (e *testEnv) newGame(t *testing.T) *View {
	t.Helper()
	v, err := e.svc.CreateGame(context.Background(), e.owner, CreateOptions{Color: "Red"})
	require.NoError(t, err)
	return v
}

// setState replaces the stored state of a game and resets its history to it.
func (e *testEnv) setState(t *testing.T, id uuid.UUID, st engine.GameState) {
	t.Helper()
	ctx := context.Background()
	g, err := e.store.GetGame(ctx, id)
	require.NoError(t, err)
	g.State = st
	g.Score = st.Score
	g.Won = st.IsWon()
	g.Active = !g.Won
	require.NoError(t, e.store.UpdateGame(ctx, g))
	require.NoError(t, e.hist.SaveHistory(ctx, id, engine.NewHistory(st)))
}

func up(s engine.Suit, r engine.Rank) engine.Card { return engine.NewCard(s, r).Up() }

func emptyLayout() engine.GameState {
	var g engine.GameState
	for i := range g.Tableau {
		g.Tableau[i] = []engine.Card{}
	}
	for i := range g.Foundations {
		g.Foundations[i] = []engine.Card{}
	}
	g.Draw = []engine.Card{}
	g.Discard = []engine.Card{}
	return g
}

// nearlyWonLayout has every card on the foundations except the king of
// spades, which is face up on pile1.
func nearlyWonLayout() engine.GameState {
	g := emptyLayout()
	for i, s := range []engine.Suit{engine.Spades, engine.Clubs, engine.Hearts, engine.Diamonds} {
		for r := engine.Ace; r <= engine.King; r++ {
			g.Foundations[i] = append(g.Foundations[i], up(s, r))
		}
	}
	g.Foundations[0] = g.Foundations[0][:12]
	g.Tableau[0] = []engine.Card{up(engine.Spades, engine.King)}
	return g
}

var kingToStack1 = engine.Move{
	Cards: []engine.Card{up(engine.Spades, engine.King)},
	Src:   engine.Pile1,
	Dst:   engine.Stack1,
}

func TestCreateGame(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	v, err := env.svc.CreateGame(ctx, env.owner, CreateOptions{Color: " Blue ", Draw: engine.DrawThree})
	require.NoError(t, err)

	assert.Equal(t, models.GameKlondike, v.Game)
	assert.Equal(t, TypeKlondike, v.Type)
	assert.Equal(t, "blue", v.Color)
	assert.Equal(t, 3, v.DrawCount)
	assert.True(t, v.Active)
	assert.False(t, v.Won)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, 0, v.Moves)
	assert.Equal(t, engine.DeckSize, v.CardsRemaining)
	require.NoError(t, v.State.Verify())
	assert.Len(t, v.State.Draw, 24)

	h, err := env.hist.LoadHistory(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, h.CanUndo())

	recs := env.pub.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, ActionCreate, recs[0].ActionType)
	assert.Equal(t, env.owner, recs[0].ActorUserID)
}

func TestCreateGameOptions(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	v, err := env.svc.CreateGame(ctx, env.owner, CreateOptions{Type: "klondike", Color: "green"})
	require.NoError(t, err)
	assert.Equal(t, 1, v.DrawCount, "default draw mode")

	_, err = env.svc.CreateGame(ctx, env.owner, CreateOptions{Type: "Spider", Color: "green"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = env.svc.CreateGame(ctx, env.owner, CreateOptions{})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = env.svc.CreateGame(ctx, env.owner, CreateOptions{Color: "green", Draw: 2})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	withDefault := NewService(env.store, env.hist, WithDefaultDraw(engine.DrawThree))
	v, err = withDefault.CreateGame(ctx, env.owner, CreateOptions{Color: "green"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.DrawCount)
}

func TestGetGameAccess(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	got, err := env.svc.GetGame(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, got.State.Equal(&v.State))

	_, err = env.svc.GetGame(ctx, uuid.New(), v.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.GetGame(ctx, env.owner, uuid.New())
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = env.svc.Draw(ctx, uuid.New(), v.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMoveRecordsAndScores(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	st := emptyLayout()
	st.Tableau[0] = []engine.Card{engine.NewCard(engine.Hearts, engine.Nine), up(engine.Spades, engine.Ace)}
	env.setState(t, v.ID, st)

	m := engine.Move{Cards: []engine.Card{up(engine.Spades, engine.Ace)}, Src: engine.Pile1, Dst: engine.Stack1}
	got, err := env.svc.Move(ctx, env.owner, v.ID, m)
	require.NoError(t, err)

	// foundation move plus flip
	assert.Equal(t, 15, got.Score)
	assert.Equal(t, 1, got.Moves)
	assert.Equal(t, engine.DeckSize-1, got.CardsRemaining)
	assert.True(t, got.State.Tableau[0][0].FaceUp)

	moves, err := env.svc.ListMoves(ctx, env.owner, v.ID)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, env.owner, moves[0].UserID)
	assert.Equal(t, engine.Pile1, moves[0].Src)
	assert.Equal(t, engine.Stack1, moves[0].Dst)
	assert.Equal(t, m.Cards, moves[0].Cards)

	at, err := env.svc.StateAt(ctx, env.owner, v.ID, 0)
	require.NoError(t, err)
	assert.True(t, at.Equal(&got.State))

	_, err = env.svc.StateAt(ctx, env.owner, v.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidMoveIndex)
	_, err = env.svc.StateAt(ctx, env.owner, v.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidMoveIndex)

	recs := env.pub.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, ActionMove, recs[1].ActionType)
	assert.Equal(t, 1, recs[1].ActionIndex)
	assert.Equal(t, "stack1", recs[1].ActionPayload["dst"])
}

func TestRejectedMoveLeavesGameUntouched(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	st := emptyLayout()
	st.Tableau[0] = []engine.Card{up(engine.Spades, engine.Two)}
	st.Score = 40
	env.setState(t, v.ID, st)

	m := engine.Move{Cards: []engine.Card{up(engine.Spades, engine.Two)}, Src: engine.Pile1, Dst: engine.Stack2}
	_, err := env.svc.Move(ctx, env.owner, v.ID, m)
	require.ErrorIs(t, err, engine.ErrFoundationNeedsAce)
	assert.Equal(t, engine.CodeFoundationNeedsAce, engine.CodeOf(err))

	got, err := env.svc.GetGame(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, got.State.Equal(&st))
	assert.Equal(t, 0, got.Moves)

	moves, err := env.svc.ListMoves(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.Empty(t, moves)
	assert.Len(t, env.pub.Records(), 1)

	_, err = env.svc.Undo(ctx, env.owner, v.ID)
	assert.ErrorIs(t, err, engine.ErrNothingToUndo)
}

func TestDraw(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	got, err := env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.State.Draw, 23)
	assert.Len(t, got.State.Discard, 1)
	assert.Equal(t, 1, got.Moves)
	assert.Equal(t, 0, got.Score)

	// Dealing the last stock card turns the discard pile over at once.
	last := emptyLayout()
	last.Tableau[0] = []engine.Card{up(engine.Hearts, engine.King)}
	last.Draw = []engine.Card{engine.NewCard(engine.Hearts, engine.Two)}
	last.Discard = []engine.Card{up(engine.Spades, engine.Five), up(engine.Clubs, engine.Nine)}
	env.setState(t, v.ID, last)
	got, err = env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.State.Draw, 3)
	assert.Empty(t, got.State.Discard)
	assert.Equal(t, engine.NewCard(engine.Hearts, engine.Two), got.State.Draw[0])
	recs := env.pub.Records()
	assert.Equal(t, true, recs[len(recs)-1].ActionPayload["redraw"])

	empty := emptyLayout()
	empty.Tableau[0] = []engine.Card{up(engine.Hearts, engine.King)}
	env.setState(t, v.ID, empty)
	_, err = env.svc.Draw(ctx, env.owner, v.ID)
	assert.ErrorIs(t, err, engine.ErrNoCardsToDraw)
}

func TestUndoRedo(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	drawn, err := env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)

	back, err := env.svc.Undo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, back.State.Equal(&v.State))
	assert.Equal(t, 1, back.Moves, "undo does not count as a move")

	_, err = env.svc.Undo(ctx, env.owner, v.ID)
	assert.ErrorIs(t, err, engine.ErrNothingToUndo)

	fwd, err := env.svc.Redo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, fwd.State.Equal(&drawn.State))

	_, err = env.svc.Redo(ctx, env.owner, v.ID)
	assert.ErrorIs(t, err, engine.ErrNothingToRedo)

	// a new operation after undo clears redo
	_, err = env.svc.Undo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	_, err = env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)
	_, err = env.svc.Redo(ctx, env.owner, v.ID)
	assert.ErrorIs(t, err, engine.ErrNothingToRedo)
}

func TestWinFlagFollowsHistory(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)
	env.setState(t, v.ID, nearlyWonLayout())

	won, err := env.svc.Move(ctx, env.owner, v.ID, kingToStack1)
	require.NoError(t, err)
	assert.True(t, won.Won)
	assert.False(t, won.Active)
	assert.Equal(t, 0, won.CardsRemaining)

	back, err := env.svc.Undo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.False(t, back.Won)
	assert.True(t, back.Active)

	fwd, err := env.svc.Redo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, fwd.Won)

	summaries, err := env.svc.ListGames(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Won)
	assert.False(t, summaries[0].Active)
}

func TestAutocomplete(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)
	env.setState(t, v.ID, nearlyWonLayout())

	got, err := env.svc.Autocomplete(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, got.Won)
	assert.Equal(t, 1, got.Moves)
	assert.Equal(t, 10, got.Score)

	// Nothing left: no move, no history entry, no action.
	published := len(env.pub.Records())
	again, err := env.svc.Autocomplete(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Moves)
	assert.Len(t, env.pub.Records(), published)

	back, err := env.svc.Undo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.False(t, back.Won)
}

func TestHistoryRecovery(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	drawn, err := env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)
	require.NoError(t, env.hist.DeleteHistory(ctx, v.ID))

	// The current state becomes the new baseline.
	_, err = env.svc.Undo(ctx, env.owner, v.ID)
	assert.ErrorIs(t, err, engine.ErrNothingToUndo)

	_, err = env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)
	back, err := env.svc.Undo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, back.State.Equal(&drawn.State))
}

// corruptHistory fails the first load of each game with ErrHistoryCorrupt
// and records deletions.
type corruptHistory struct {
	*cache.MemoryHistoryStore
	mu      sync.Mutex
	failed  map[uuid.UUID]bool
	deleted []uuid.UUID
}

func (c *corruptHistory) LoadHistory(ctx context.Context, id uuid.UUID) (*engine.History, error) {
	c.mu.Lock()
	fail := !c.failed[id]
	c.failed[id] = true
	c.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("%w: game %s: unexpected end of JSON input", cache.ErrHistoryCorrupt, id)
	}
	return c.MemoryHistoryStore.LoadHistory(ctx, id)
}

func (c *corruptHistory) DeleteHistory(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	c.deleted = append(c.deleted, id)
	c.mu.Unlock()
	return c.MemoryHistoryStore.DeleteHistory(ctx, id)
}

func TestCorruptHistoryIsDropped(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	hist := &corruptHistory{MemoryHistoryStore: env.hist, failed: map[uuid.UUID]bool{}}
	env.svc.history = hist

	drawn, err := env.svc.Draw(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{v.ID}, hist.deleted)

	back, err := env.svc.Undo(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, back.State.Equal(&v.State))
	assert.False(t, drawn.State.Equal(&back.State))
}

func TestCheckGameOver(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	stuck := emptyLayout()
	stuck.Tableau[0] = []engine.Card{up(engine.Clubs, engine.Queen)}
	stuck.Draw = []engine.Card{engine.NewCard(engine.Diamonds, engine.Four)}
	env.setState(t, v.ID, stuck)
	over, err := env.svc.CheckGameOver(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.True(t, over)

	env.setState(t, v.ID, nearlyWonLayout())
	over, err = env.svc.CheckGameOver(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.False(t, over)

	_, err = env.svc.Move(ctx, env.owner, v.ID, kingToStack1)
	require.NoError(t, err)
	over, err = env.svc.CheckGameOver(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.False(t, over, "a won game is not over")
}

func TestListGames(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	first := env.newGame(t)
	second := env.newGame(t)
	_, err := env.svc.CreateGame(ctx, uuid.New(), CreateOptions{Color: "red"})
	require.NoError(t, err)

	summaries, err := env.svc.ListGames(ctx, env.owner)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, first.ID, summaries[1].ID)
	assert.False(t, first.State.Equal(&second.State), "games dealt from different seeds")
}

// TestConcurrentDraws hammers one game from many goroutines; the per-game
// lock must serialize them so no draw is lost.
func TestConcurrentDraws(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	v := env.newGame(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Draw(ctx, env.owner, v.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := env.svc.GetGame(ctx, env.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Moves)
	assert.Len(t, got.State.Draw, 24-n)
	require.NoError(t, got.State.Verify())

	recs := env.pub.Records()
	require.Len(t, recs, n+1)
	for i, rec := range recs {
		assert.Equal(t, i, rec.ActionIndex)
	}

	env.svc.locksMu.Lock()
	defer env.svc.locksMu.Unlock()
	assert.Empty(t, env.svc.locks, "idle games keep no lock entry")
}
