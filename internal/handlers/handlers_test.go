package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erricrr/hf-togetherai-rpg/internal/services"
	"github.com/erricrr/hf-togetherai-rpg/internal/session"
	"github.com/erricrr/hf-togetherai-rpg/internal/storage"
	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
	"github.com/erricrr/hf-togetherai-rpg/pkg/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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
						NPCs:        map[string]world.NPC{"Ada": {Description: "A miner."}},
					},
				},
			},
		},
	}
}

type testEnv struct {
	llm      *services.MockLLMAPI
	store    *storage.MemoryStorage
	sessions *session.Manager
}

// newTestEnv wires the real turn pipeline to a mock model.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	llm := services.NewMockLLMAPI()
	log := testLogger()
	orch := turn.NewOrchestrator(
		services.NewLLMNarrator(llm, 0),
		services.NewGuardGate(llm, "", log),
		services.NewLLMInventoryExtractor(llm, log),
		log,
	)
	store := storage.NewMemoryStorage()
	mgr := session.NewManager(store, nil, orch, testWorld(),
		world.Selection{Kingdom: "North", Town: "Frost", Character: "Ada"}, log)
	return &testEnv{llm: llm, store: store, sessions: mgr}
}

func (e *testEnv) createSession(t *testing.T) *state.Session {
	t.Helper()
	s, err := e.sessions.Create(t.Context(), session.CreateOptions{})
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}
