package game

import (
	"errors"
	"strings"
)

// Side is a player polarity. Max is the maximizing side and moves first.
type Side int8

const (
	Min    Side = -1
	NoSide Side = 0
	Max    Side = 1
)

const (
	MarkMax   = 'A'
	MarkMin   = 'H'
	MarkEmpty = '_'
)

const (
	DefaultRows      = 5
	DefaultColumns   = 4
	DefaultRunLength = 4

	WinScore = 10
)

var (
	ErrInvalidColumn  = errors.New("invalid column")
	ErrColumnFull     = errors.New("column is full")
	ErrMalformedBoard = errors.New("malformed board")
)

// Opponent returns the other side. NoSide has no opponent.
func (s Side) Opponent() Side {
	return -s
}

func (s Side) Mark() rune {
	switch s {
	case Max:
		return MarkMax
	case Min:
		return MarkMin
	default:
		return MarkEmpty
	}
}

func (s Side) String() string {
	if s == NoSide {
		return ""
	}
	return string(s.Mark())
}

// SideFromMark maps a rendered mark back to its side.
func SideFromMark(mark rune) (Side, bool) {
	switch mark {
	case MarkMax:
		return Max, true
	case MarkMin:
		return Min, true
	case MarkEmpty, '.':
		return NoSide, true
	default:
		return NoSide, false
	}
}

type Config struct {
	Rows      int
	Columns   int
	RunLength int
}

func DefaultConfig() Config {
	return Config{Rows: DefaultRows, Columns: DefaultColumns, RunLength: DefaultRunLength}
}

// State is one position: the grid, whose turn it is, and the fixed rules
// (dimensions and run length) it is played under. Row 0 is the top row.
type State struct {
	rows    int
	columns int
	run     int
	grid    []Side
	turn    Side
}

func New(cfg Config) *State {
	s := &State{rows: cfg.Rows, columns: cfg.Columns, run: cfg.RunLength}
	s.Generate()
	return s
}

// Generate clears the grid and gives the first turn to Max.
func (s *State) Generate() {
	s.grid = make([]Side, s.rows*s.columns)
	s.turn = Max
}

func (s *State) Reset() {
	s.Generate()
}

func (s *State) Rows() int      { return s.rows }
func (s *State) Columns() int   { return s.columns }
func (s *State) RunLength() int { return s.run }
func (s *State) Turn() Side     { return s.turn }

func (s *State) Config() Config {
	return Config{Rows: s.rows, Columns: s.columns, RunLength: s.run}
}

func (s *State) At(row, col int) Side {
	return s.grid[row*s.columns+col]
}

func (s *State) inBounds(row, col int) bool {
	return row >= 0 && row < s.rows && col >= 0 && col < s.columns
}

// IsMoveLegal reports why a piece cannot be dropped into col, or nil.
func (s *State) IsMoveLegal(col int) error {
	if col < 0 || col >= s.columns {
		return ErrInvalidColumn
	}
	for row := s.rows - 1; row >= 0; row-- {
		if s.At(row, col) == NoSide {
			return nil
		}
	}
	return ErrColumnFull
}

// ApplyMove drops the current side's mark into the lowest empty row of col
// and passes the turn.
func (s *State) ApplyMove(col int) error {
	if err := s.IsMoveLegal(col); err != nil {
		return err
	}
	for row := s.rows - 1; row >= 0; row-- {
		if s.At(row, col) == NoSide {
			s.grid[row*s.columns+col] = s.turn
			s.turn = s.turn.Opponent()
			break
		}
	}
	return nil
}

func (s *State) LegalMoves() []int {
	moves := make([]int, 0, s.columns)
	for col := 0; col < s.columns; col++ {
		if s.IsMoveLegal(col) == nil {
			moves = append(moves, col)
		}
	}
	return moves
}

var directions = [][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// Winner checks every cell as the start of a run, so it stays correct for
// positions that were never built move by move.
func (s *State) Winner() Side {
	if line := s.WinningLine(); line != nil {
		return s.At(line[0][0], line[0][1])
	}
	return NoSide
}

// WinningLine returns the cells of the first complete run found, or nil.
func (s *State) WinningLine() [][2]int {
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.columns; col++ {
			for _, d := range directions {
				if s.runFrom(row, col, d[0], d[1]) {
					line := make([][2]int, s.run)
					for i := range line {
						line[i] = [2]int{row + i*d[0], col + i*d[1]}
					}
					return line
				}
			}
		}
	}
	return nil
}

func (s *State) runFrom(row, col, dr, dc int) bool {
	owner := s.At(row, col)
	if owner == NoSide || s.run <= 0 {
		return false
	}
	for i := 1; i < s.run; i++ {
		row += dr
		col += dc
		if !s.inBounds(row, col) || s.At(row, col) != owner {
			return false
		}
	}
	return true
}

func (s *State) EmptyCells() int {
	n := 0
	for _, cell := range s.grid {
		if cell == NoSide {
			n++
		}
	}
	return n
}

func (s *State) IsFull() bool {
	for _, cell := range s.grid {
		if cell == NoSide {
			return false
		}
	}
	return true
}

// Ongoing is true while nobody has won and the grid still has room.
func (s *State) Ongoing() bool {
	return s.Winner() == NoSide && !s.IsFull()
}

// Score is +WinScore when Max has won, -WinScore when Min has won and 0
// otherwise, draws included.
func (s *State) Score() float64 {
	switch s.Winner() {
	case Max:
		return WinScore
	case Min:
		return -WinScore
	default:
		return 0
	}
}

func (s *State) Clone() *State {
	dup := *s
	dup.grid = make([]Side, len(s.grid))
	copy(dup.grid, s.grid)
	return &dup
}

func (s *State) Lines() []string {
	lines := make([]string, s.rows)
	var b strings.Builder
	for row := 0; row < s.rows; row++ {
		b.Reset()
		for col := 0; col < s.columns; col++ {
			b.WriteRune(s.At(row, col).Mark())
		}
		lines[row] = b.String()
	}
	return lines
}

func (s *State) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Parse builds a state from rendered rows, top row first. When turn is
// NoSide the side to move is inferred from the piece counts.
func Parse(lines []string, runLength int, turn Side) (*State, error) {
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, ErrMalformedBoard
	}
	s := &State{rows: len(lines), columns: len([]rune(lines[0])), run: runLength}
	s.grid = make([]Side, 0, s.rows*s.columns)
	var maxCount, minCount int
	for _, line := range lines {
		marks := []rune(line)
		if len(marks) != s.columns {
			return nil, ErrMalformedBoard
		}
		for _, mark := range marks {
			side, ok := SideFromMark(mark)
			if !ok {
				return nil, ErrMalformedBoard
			}
			switch side {
			case Max:
				maxCount++
			case Min:
				minCount++
			}
			s.grid = append(s.grid, side)
		}
	}
	s.turn = turn
	if s.turn == NoSide {
		s.turn = Max
		if maxCount > minCount {
			s.turn = Min
		}
	}
	return s, nil
}
