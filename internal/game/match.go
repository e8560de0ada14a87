package game

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

var (
	ErrInvalidTurn  = errors.New("not your turn")
	ErrGameFinished = errors.New("game already finished")
)

// Match owns the canonical state of one game. Human is the side a person
// plays; NoSide means the bot plays both sides.
type Match struct {
	ID        string
	State     *State
	Human     Side
	Bot       *Bot
	Status    string
	Winner    Side
	Moves     []int
	StartedAt time.Time
	EndedAt   time.Time

	onFinish func(*Match)
}

func NewMatch(cfg Config, human Side, bot *Bot, onFinish func(*Match)) *Match {
	return &Match{
		ID:        uuid.NewString(),
		State:     New(cfg),
		Human:     human,
		Bot:       bot,
		Status:    StatusActive,
		StartedAt: time.Now(),
		onFinish:  onFinish,
	}
}

func (m *Match) Finished() bool {
	return m.Status == StatusFinished
}

// BotToMove reports whether the next move belongs to the bot.
func (m *Match) BotToMove() bool {
	return !m.Finished() && m.State.Turn() != m.Human
}

func (m *Match) PlayHuman(col int) error {
	if m.Finished() {
		return ErrGameFinished
	}
	if m.State.Turn() != m.Human {
		return ErrInvalidTurn
	}
	return m.play(col)
}

func (m *Match) PlayBot() (Move, error) {
	if m.Finished() {
		return Move{Column: NoColumn}, ErrGameFinished
	}
	if !m.BotToMove() {
		return Move{Column: NoColumn}, ErrInvalidTurn
	}
	move := m.Bot.ChooseMove(m.State)
	if err := m.play(move.Column); err != nil {
		return move, err
	}
	return move, nil
}

func (m *Match) play(col int) error {
	if err := m.State.ApplyMove(col); err != nil {
		return err
	}
	m.Moves = append(m.Moves, col)

	if winner := m.State.Winner(); winner != NoSide || m.State.IsFull() {
		m.Status = StatusFinished
		m.Winner = winner
		m.EndedAt = time.Now()
		if m.onFinish != nil {
			m.onFinish(m)
		}
	}
	return nil
}
