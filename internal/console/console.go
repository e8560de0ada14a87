// Package console runs a match against the bot over a line-oriented text
// stream.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MaslovStas/intelect/internal/game"
)

var ErrBadInput = errors.New("input is not a positive integer")

type Game struct {
	in    *bufio.Scanner
	out   io.Writer
	match *game.Match
}

func New(in io.Reader, out io.Writer, match *game.Match) *Game {
	return &Game{in: bufio.NewScanner(in), out: out, match: match}
}

// Run plays until the match is decided. It returns io.ErrUnexpectedEOF if the
// input ends first.
func (g *Game) Run(ctx context.Context) error {
	for !g.match.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if g.match.BotToMove() {
			fmt.Fprintln(g.out, "Thinking...")
			if _, err := g.match.PlayBot(); err != nil {
				return err
			}
		} else if err := g.humanTurn(); err != nil {
			return err
		}
		fmt.Fprintln(g.out, g.match.State)
	}

	if winner := g.match.Winner; winner != game.NoSide {
		fmt.Fprintln(g.out, winner)
	} else {
		fmt.Fprintln(g.out, "Draw!")
	}
	return nil
}

func (g *Game) humanTurn() error {
	for {
		fmt.Fprint(g.out, "Make your move: ")
		if !g.in.Scan() {
			if err := g.in.Err(); err != nil {
				return err
			}
			return io.ErrUnexpectedEOF
		}
		col, err := parseColumn(g.in.Text())
		if err == nil {
			err = g.match.PlayHuman(col)
		}
		if err == nil {
			return nil
		}
		fmt.Fprintln(g.out, message(err))
	}
}

// parseColumn turns 1-based user input into a 0-based column.
func parseColumn(text string) (int, error) {
	text = strings.TrimSpace(text)
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 || strings.HasPrefix(text, "+") {
		return 0, ErrBadInput
	}
	return n - 1, nil
}

func message(err error) string {
	switch {
	case errors.Is(err, ErrBadInput):
		return "Input positive integer number!"
	case errors.Is(err, game.ErrInvalidColumn):
		return "Wrong input number's slot!"
	case errors.Is(err, game.ErrColumnFull):
		return "This slot is full!"
	default:
		return err.Error()
	}
}
