package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/MaslovStas/intelect/internal/game"
	"github.com/MaslovStas/intelect/internal/storage"
)

func newTestServer(store storage.Store) *Server {
	gin.SetMode(gin.TestMode)
	return New(Config{
		Board:        game.Config{Rows: 4, Columns: 4, RunLength: 3},
		DefaultDepth: 4,
		MaxDepth:     6,
		Seed:         1,
		Store:        store,
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health: %d %s", rec.Code, rec.Body)
	}
}

func TestAnalyzeFindsWinAndRecordsIt(t *testing.T) {
	store := storage.NewMemoryStore(10)
	s := newTestServer(store)

	body := `{"board":["____","____","AH__","AH__","AH__"],"runLength":4,"turn":"A","depth":3}`
	rec := do(t, s, http.MethodPost, "/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body)
	}
	var res analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Column != 0 || res.Score != game.WinScore || res.Turn != "A" || res.Depth != 3 {
		t.Fatalf("unexpected analysis: %+v", res)
	}
	if res.ID == "" || res.Nodes == 0 || res.Winner != "" || res.Full {
		t.Fatalf("missing metadata: %+v", res)
	}

	rec = do(t, s, http.MethodGet, "/analyses?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analyses: %d %s", rec.Code, rec.Body)
	}
	var rows []storage.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != res.ID || rows[0].Column != 0 || len(rows[0].Board) != 5 {
		t.Fatalf("analysis not stored: %+v", rows)
	}
}

func TestAnalyzeDecidedBoard(t *testing.T) {
	body := `{"board":["A___","A___","AH__","AH__","AH__"],"runLength":4}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body)
	}
	var res analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Column != game.NoColumn || res.Winner != "A" || len(res.WinningLine) != 4 {
		t.Fatalf("expected a decided position: %+v", res)
	}
}

func TestAnalyzeDepthIsCapped(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/analyze", `{"board":["___","___"],"depth":50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body)
	}
	var res analyzeResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Depth != 6 {
		t.Fatalf("depth = %d, want the server maximum 6", res.Depth)
	}
}

func TestAnalyzeDepthFitsSearchBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(Config{
		Board:        game.Config{Rows: 4, Columns: 4, RunLength: 3},
		DefaultDepth: 4,
		MaxDepth:     12,
		SearchBudget: 16 * 16,
		Seed:         1,
	})
	wide := make([]string, 16)
	for i := range wide {
		wide[i] = strings.Repeat("_", 16)
	}
	body, _ := json.Marshal(map[string]any{"board": wide, "runLength": 4, "depth": 10})
	rec := do(t, s, http.MethodPost, "/analyze", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body)
	}
	var res analyzeResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Depth != 2 {
		t.Fatalf("depth = %d, want 2 for a budget of 16^2 leaves", res.Depth)
	}
}

func TestSearchDepthDefaultBudget(t *testing.T) {
	s := New(Config{DefaultDepth: 4, MaxDepth: 12})
	wide := game.New(game.Config{Rows: 16, Columns: 16, RunLength: 4})
	ten := 10
	tests := []struct {
		name  string
		state *game.State
		want  int
	}{
		{"16 columns", wide, 5},
		{"4 columns", game.New(game.DefaultConfig()), 10},
		{"few empty cells", mustState(t, []string{"_A_H", "AHAH", "HAHA"}), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.searchDepth(&ten, tt.state); got != tt.want {
				t.Fatalf("searchDepth = %d, want %d", got, tt.want)
			}
		})
	}
}

func mustState(t *testing.T, lines []string) *game.State {
	t.Helper()
	state, err := game.Parse(lines, 4, game.NoSide)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return state
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	s := newTestServer(nil)
	for name, body := range map[string]string{
		"not json":     `{`,
		"no board":     `{}`,
		"ragged board": `{"board":["AH","A"]}`,
		"bad mark":     `{"board":["AX"]}`,
		"bad turn":     `{"board":["__"],"turn":"Q"}`,
		"long turn":    `{"board":["__"],"turn":"AH"}`,
		"negative run": `{"board":["__"],"runLength":-1}`,
		"too large":    `{"board":["` + strings.Repeat("_", 20) + `"]}`,
	} {
		rec := do(t, s, http.MethodPost, "/analyze", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400 (%s)", name, rec.Code, rec.Body)
		}
	}
}

func TestAnalysesRejectsBadLimit(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/analyses?limit=-3", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSelfPlayStreamsMatch(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/selfplay?depth=3"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var frames []frame
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			break
		}
		frames = append(frames, f)
		if f.Type == "finished" {
			break
		}
	}
	if len(frames) < 3 || frames[0].Type != "start" {
		t.Fatalf("unexpected frames: %+v", frames)
	}
	last := frames[len(frames)-1]
	if last.Type != "finished" {
		t.Fatalf("stream did not finish: %+v", last)
	}
	if last.Plies != len(frames)-2 {
		t.Fatalf("plies %d but %d state frames", last.Plies, len(frames)-2)
	}
	for _, f := range frames[1 : len(frames)-1] {
		if f.Type != "state" || f.Column == nil || *f.Column < 0 || *f.Column >= 4 {
			t.Fatalf("bad state frame: %+v", f)
		}
	}
	var board bytes.Buffer
	for _, line := range last.Board {
		board.WriteString(line)
	}
	if !strings.ContainsAny(board.String(), "AH") {
		t.Fatalf("final board empty: %v", last.Board)
	}
}

func TestSelfPlayRejectsBadDepth(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/ws/selfplay?depth=x", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}
