package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MaslovStas/intelect/internal/analytics"
	"github.com/MaslovStas/intelect/internal/game"
	"github.com/MaslovStas/intelect/internal/storage"
)

type analyzeRequest struct {
	Board     []string `json:"board" binding:"required"`
	RunLength int      `json:"runLength"`
	Turn      string   `json:"turn"`
	Depth     *int     `json:"depth"`
}

type analyzeResponse struct {
	ID          string   `json:"id"`
	Column      int      `json:"column"`
	Score       float64  `json:"score"`
	Turn        string   `json:"turn"`
	Winner      string   `json:"winner"`
	Full        bool     `json:"full"`
	Depth       int      `json:"depth"`
	Nodes       int      `json:"nodes"`
	Cutoffs     int      `json:"cutoffs"`
	DurationMs  int64    `json:"durationMs"`
	WinningLine [][2]int `json:"winningLine,omitempty"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RunLength == 0 {
		req.RunLength = s.board.RunLength
	}
	if req.RunLength < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "runLength must be positive"})
		return
	}
	if len(req.Board) > maxDimension || (len(req.Board) > 0 && len(req.Board[0]) > maxDimension) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "board is too large"})
		return
	}
	turn, ok := parseTurn(req.Turn)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "turn must be \"A\" or \"H\""})
		return
	}
	state, err := game.Parse(req.Board, req.RunLength, turn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	depth := s.searchDepth(req.Depth, state)
	bot := s.newBot(depth)
	started := time.Now()
	move := bot.ChooseMove(state)
	took := time.Since(started)
	stats := bot.LastStats()

	res := analyzeResponse{
		ID:          uuid.NewString(),
		Column:      move.Column,
		Score:       move.Score,
		Turn:        state.Turn().String(),
		Winner:      state.Winner().String(),
		Full:        state.IsFull(),
		Depth:       depth,
		Nodes:       stats.Nodes,
		Cutoffs:     stats.Cutoffs,
		DurationMs:  took.Milliseconds(),
		WinningLine: state.WinningLine(),
	}
	s.record(c.Request.Context(), state, res)
	c.JSON(http.StatusOK, res)
}

// parseTurn accepts an empty string, meaning "infer from the board".
func parseTurn(turn string) (game.Side, bool) {
	if turn == "" {
		return game.NoSide, true
	}
	marks := []rune(turn)
	if len(marks) != 1 {
		return game.NoSide, false
	}
	side, ok := game.SideFromMark(marks[0])
	return side, ok && side != game.NoSide
}

func (s *Server) record(ctx context.Context, state *game.State, res analyzeResponse) {
	err := s.store.SaveAnalysis(ctx, storage.Analysis{
		ID:         res.ID,
		Board:      state.Lines(),
		RunLength:  state.RunLength(),
		Turn:       res.Turn,
		Depth:      res.Depth,
		Column:     res.Column,
		Score:      res.Score,
		Nodes:      res.Nodes,
		Cutoffs:    res.Cutoffs,
		DurationMs: res.DurationMs,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("id", res.ID).Msg("failed to save analysis")
	}
	s.analytics.Publish(ctx, analytics.EventMoveChosen, map[string]any{
		"analysisId": res.ID,
		"column":     res.Column,
		"score":      res.Score,
		"depth":      res.Depth,
		"nodes":      res.Nodes,
		"cutoffs":    res.Cutoffs,
		"durationMs": res.DurationMs,
	})
}
