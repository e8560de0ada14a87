package analytics

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Metrics aggregates engine activity seen on the event topic.
type Metrics struct {
	mu sync.Mutex

	searches      int
	totalNodes    float64
	totalMillis   float64
	columnCounts  map[int]int
	matches       int
	totalPlies    float64
	totalSeconds  float64
	winnerCounts  map[string]int
	unknownEvents int
}

func NewMetrics() *Metrics {
	return &Metrics{
		columnCounts: make(map[int]int),
		winnerCounts: make(map[string]int),
	}
}

type Summary struct {
	Searches        int            `json:"searches"`
	AvgNodes        float64        `json:"avgNodes"`
	AvgDurationMs   float64        `json:"avgDurationMs"`
	Columns         map[int]int    `json:"columns"`
	Matches         int            `json:"matches"`
	AvgPlies        float64        `json:"avgPlies"`
	AvgMatchSeconds float64        `json:"avgMatchSeconds"`
	Winners         map[string]int `json:"winners"`
	Unknown         int            `json:"unknown"`
}

func (m *Metrics) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e.Event {
	case EventMoveChosen:
		m.searches++
		m.totalNodes += number(e.Payload["nodes"])
		m.totalMillis += number(e.Payload["durationMs"])
		if col, ok := e.Payload["column"].(float64); ok {
			m.columnCounts[int(col)]++
		}
	case EventMatchFinished:
		m.matches++
		m.totalPlies += number(e.Payload["plies"])
		m.totalSeconds += number(e.Payload["duration"])
		winner, _ := e.Payload["winner"].(string)
		if winner == "" {
			winner = "draw"
		}
		m.winnerCounts[winner]++
	default:
		m.unknownEvents++
	}
}

func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		Searches: m.searches,
		Columns:  make(map[int]int, len(m.columnCounts)),
		Matches:  m.matches,
		Winners:  make(map[string]int, len(m.winnerCounts)),
		Unknown:  m.unknownEvents,
	}
	if m.searches > 0 {
		s.AvgNodes = m.totalNodes / float64(m.searches)
		s.AvgDurationMs = m.totalMillis / float64(m.searches)
	}
	if m.matches > 0 {
		s.AvgPlies = m.totalPlies / float64(m.matches)
		s.AvgMatchSeconds = m.totalSeconds / float64(m.matches)
	}
	for k, v := range m.columnCounts {
		s.Columns[k] = v
	}
	for k, v := range m.winnerCounts {
		s.Winners[k] = v
	}
	return s
}

func (m *Metrics) Log() {
	s := m.Summary()
	cols := make([]int, 0, len(s.Columns))
	for c := range s.Columns {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	histogram := make([]int, 0, len(cols))
	for _, c := range cols {
		histogram = append(histogram, s.Columns[c])
	}
	log.Info().
		Int("searches", s.Searches).
		Float64("avgNodes", s.AvgNodes).
		Float64("avgDurationMs", s.AvgDurationMs).
		Ints("columns", cols).
		Ints("columnCounts", histogram).
		Int("matches", s.Matches).
		Float64("avgPlies", s.AvgPlies).
		Float64("avgMatchSeconds", s.AvgMatchSeconds).
		Interface("winners", s.Winners).
		Msg("analytics-summary")
}

// number reads a JSON number, which encoding/json decodes as float64.
func number(v any) float64 {
	f, _ := v.(float64)
	return f
}
