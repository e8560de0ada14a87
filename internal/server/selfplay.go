package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/MaslovStas/intelect/internal/analytics"
	"github.com/MaslovStas/intelect/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type frame struct {
	Type    string   `json:"type"`
	MatchID string   `json:"matchId"`
	Board   []string `json:"board"`
	Turn    string   `json:"turn,omitempty"`
	Column  *int     `json:"column,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Winner  string   `json:"winner,omitempty"`
	Plies   int      `json:"plies"`
}

// handleSelfPlay streams a bot-versus-bot match, one frame per ply.
func (s *Server) handleSelfPlay(c *gin.Context) {
	var depth *int
	if v := c.Query("depth"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be an integer"})
			return
		}
		depth = &parsed
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		// Drain control frames; any read error means the peer is gone.
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	match := game.NewMatch(s.board, game.NoSide, nil, s.onFinish)
	match.Bot = s.newBot(s.searchDepth(depth, match.State))
	if err := conn.WriteJSON(s.newFrame("start", match, nil)); err != nil {
		return
	}

	for !match.Finished() {
		move, err := match.PlayBot()
		if err != nil {
			log.Error().Err(err).Str("match", match.ID).Msg("self-play move failed")
			return
		}
		if err := conn.WriteJSON(s.newFrame("state", match, &move)); err != nil {
			return
		}
		if match.Finished() {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.delay):
		}
	}

	_ = conn.WriteJSON(s.newFrame("finished", match, nil))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match finished"))
}

func (s *Server) newFrame(kind string, m *game.Match, move *game.Move) frame {
	f := frame{
		Type:    kind,
		MatchID: m.ID,
		Board:   m.State.Lines(),
		Turn:    m.State.Turn().String(),
		Winner:  m.Winner.String(),
		Plies:   len(m.Moves),
	}
	if move != nil {
		f.Column = &move.Column
		f.Score = &move.Score
	}
	return f
}

func (s *Server) onFinish(m *game.Match) {
	log.Info().
		Str("match", m.ID).
		Str("winner", m.Winner.String()).
		Int("plies", len(m.Moves)).
		Dur("took", m.EndedAt.Sub(m.StartedAt)).
		Msg("self-play finished")
	s.analytics.Publish(context.Background(), analytics.EventMatchFinished, map[string]any{
		"matchId":   m.ID,
		"winner":    m.Winner.String(),
		"plies":     len(m.Moves),
		"moves":     m.Moves,
		"duration":  m.EndedAt.Sub(m.StartedAt).Seconds(),
		"startedAt": m.StartedAt,
		"endedAt":   m.EndedAt,
	})
}
