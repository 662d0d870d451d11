package service

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// State то, что раннер публикует наружу. Только чтение снапшотов, торговое состояние здесь не живёт.
type State struct {
	ready     atomic.Bool
	halted    atomic.Bool
	startedAt time.Time

	streamConnected atomic.Bool
	lastCycleUnix   atomic.Int64
	lastBalance     atomic.Uint64
	lastPrice       atomic.Uint64
	cycles          atomic.Int64
	failedCycles    atomic.Int64

	mu           sync.RWMutex
	positionSide string
	strategy     string
	lastError    string
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() && !s.halted.Load() }

// Halt после fail-stop процесс доживает только до завершения fx.
func (s *State) Halt(reason string) {
	s.halted.Store(true)
	s.SetError(reason)
}
func (s *State) Halted() bool { return s.halted.Load() }

func (s *State) SetStreamConnected(v bool) { s.streamConnected.Store(v) }
func (s *State) StreamConnected() bool     { return s.streamConnected.Load() }

// TouchCycle отметка завершённого цикла.
func (s *State) TouchCycle(t time.Time, ok bool) {
	s.lastCycleUnix.Store(t.Unix())
	s.cycles.Add(1)
	if !ok {
		s.failedCycles.Add(1)
	}
}

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Cycles() (total, failed int64) { return s.cycles.Load(), s.failedCycles.Load() }

func (s *State) SetBalance(v float64) { s.lastBalance.Store(math.Float64bits(v)) }
func (s *State) Balance() float64     { return math.Float64frombits(s.lastBalance.Load()) }

func (s *State) SetPrice(v float64) { s.lastPrice.Store(math.Float64bits(v)) }
func (s *State) Price() float64     { return math.Float64frombits(s.lastPrice.Load()) }

func (s *State) SetPosition(side, strategyState string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positionSide = side
	s.strategy = strategyState
}

func (s *State) Position() (side, strategyState string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positionSide, s.strategy
}

func (s *State) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *State) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
