package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MaslovStas/intelect/internal/analytics"
	"github.com/MaslovStas/intelect/internal/game"
	"github.com/MaslovStas/intelect/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxDimension     = 16

	// DefaultSearchBudget bounds columns^plies, the leaf count of an
	// unpruned search, for a single request.
	DefaultSearchBudget = 1 << 22
)

type Config struct {
	Board         game.Config
	DefaultDepth  int
	MaxDepth      int
	SearchBudget  int
	Seed          int64
	SelfPlayDelay time.Duration
	Store         storage.Store
	Analytics     *analytics.Producer
}

type Server struct {
	router    *gin.Engine
	board     game.Config
	depth     int
	maxDepth  int
	budget    int
	seed      int64
	delay     time.Duration
	store     storage.Store
	analytics *analytics.Producer
}

func New(cfg Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore(maxListLimit)
	}
	budget := cfg.SearchBudget
	if budget <= 0 {
		budget = DefaultSearchBudget
	}
	s := &Server{
		router:    router,
		board:     cfg.Board,
		depth:     cfg.DefaultDepth,
		maxDepth:  cfg.MaxDepth,
		budget:    budget,
		seed:      cfg.Seed,
		delay:     cfg.SelfPlayDelay,
		store:     store,
		analytics: cfg.Analytics,
	}

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/analyze", s.handleAnalyze)
	router.GET("/analyses", s.handleAnalyses)
	router.GET("/ws/selfplay", s.handleSelfPlay)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("server shutting down")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

// clampDepth turns an optional requested depth into one the server allows.
func (s *Server) clampDepth(requested *int) int {
	depth := s.depth
	if requested != nil {
		depth = *requested
	}
	if depth < 0 {
		depth = 0
	}
	if depth > s.maxDepth {
		depth = s.maxDepth
	}
	return depth
}

// searchDepth lowers the allowed depth until columns^plies fits the search
// budget. Plies past the empty cells are free: the search stops at a full
// board.
func (s *Server) searchDepth(requested *int, state *game.State) int {
	depth := s.clampDepth(requested)
	plies := min(depth, state.EmptyCells())
	leaves := 1
	for d := 0; d < plies; d++ {
		if leaves > s.budget/state.Columns() {
			return d
		}
		leaves *= state.Columns()
	}
	return depth
}

// newBot gives each request its own searcher; searchers are not shared.
func (s *Server) newBot(depth int) *game.Bot {
	return game.NewBot(depth, s.seed)
}

func (s *Server) handleAnalyses(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxListLimit)
	}
	rows, err := s.store.RecentAnalyses(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list analyses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load analyses"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(started)).
			Msg("request")
	}
}
