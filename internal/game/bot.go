package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultDepth = 10

// Bot picks moves for whichever side is to move by searching Depth plies.
type Bot struct {
	Depth    int
	searcher *Searcher
}

// NewBot returns a bot whose move ordering is driven by seed. A zero seed
// uses the current time.
func NewBot(depth int, seed int64) *Bot {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Bot{
		Depth:    depth,
		searcher: NewSearcher(rand.New(rand.NewSource(seed))),
	}
}

// ChooseMove searches from state.Turn()'s perspective. The result's column is
// NoColumn only when the position is already decided.
func (b *Bot) ChooseMove(state *State) Move {
	started := time.Now()
	b.searcher.ResetStats()

	move := b.searcher.Search(state, b.Depth, state.Turn(), math.Inf(-1), math.Inf(1))

	stats := b.searcher.Stats()
	log.Debug().
		Int("depth", b.Depth).
		Str("side", state.Turn().String()).
		Int("column", move.Column).
		Float64("score", move.Score).
		Int("nodes", stats.Nodes).
		Int("cutoffs", stats.Cutoffs).
		Dur("took", time.Since(started)).
		Msg("bot-move")
	return move
}

func (b *Bot) LastStats() Stats {
	return b.searcher.Stats()
}

// ChooseMove is the one-shot entry point for game loops that do not keep a
// Bot around.
func ChooseMove(state *State, depth int) int {
	return NewBot(depth, 0).ChooseMove(state).Column
}
