package game

import "math"

const NoColumn = -1

// Move is a search result. Moves are ordered by score only.
type Move struct {
	Column int
	Score  float64
}

func (m Move) Less(other Move) bool {
	return m.Score < other.Score
}

// Shuffler yields permutations of [0, n). *rand.Rand satisfies it.
type Shuffler interface {
	Perm(n int) []int
}

type Stats struct {
	Nodes   int
	Cutoffs int
	Skipped int
}

// Searcher runs minimax with alpha-beta pruning. It is not safe for
// concurrent use; give each goroutine its own.
type Searcher struct {
	order Shuffler
	stats Stats
}

func NewSearcher(order Shuffler) *Searcher {
	return &Searcher{order: order}
}

// Stats returns the counters accumulated since the last ResetStats.
func (s *Searcher) Stats() Stats {
	return s.stats
}

func (s *Searcher) ResetStats() {
	s.stats = Stats{}
}

// Search returns the best column for side and its backed-up score. Max
// prefers higher scores, Min lower ones. state is never modified: every
// candidate is tried on its own clone.
func (s *Searcher) Search(state *State, depth int, side Side, alpha, beta float64) Move {
	s.stats.Nodes++

	score := state.Score()
	if score != 0 || state.IsFull() || depth == 0 {
		return Move{Column: NoColumn, Score: score}
	}

	best := Move{Column: NoColumn, Score: math.Inf(-int(side))}
	for _, col := range s.order.Perm(state.Columns()) {
		next := state.Clone()
		if err := next.ApplyMove(col); err != nil {
			s.stats.Skipped++
			continue
		}

		child := s.Search(next, depth-1, side.Opponent(), alpha, beta)
		child.Column = col

		if side == Max {
			if best.Less(child) {
				best = child
			}
			alpha = math.Max(alpha, best.Score)
		} else {
			if child.Less(best) {
				best = child
			}
			beta = math.Min(beta, best.Score)
		}

		if alpha >= beta {
			s.stats.Cutoffs++
			break
		}
	}

	if best.Column == NoColumn {
		return Move{Column: NoColumn, Score: score}
	}
	return best
}
