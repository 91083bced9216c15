// Package status keeps the outcome of the most recent poll cycle in memory so the ops
// surface can report it. Nothing is persisted across restarts.
package status

import (
	"sync"
	"time"
)

// Outcome classifies how a poll cycle ended.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeRejected        Outcome = "rejected"
	OutcomeHTTPError       Outcome = "http_error"
	OutcomeNetworkError    Outcome = "network_error"
	OutcomeUnexpectedError Outcome = "unexpected_error"
)

// Report summarises a single poll cycle.
type Report struct {
	CycleID         string    `json:"cycleId"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	Outcome         Outcome   `json:"outcome"`
	ProductsChecked int       `json:"productsChecked"`
	ItemsChecked    int       `json:"itemsChecked"`
	ItemsRestocked  int       `json:"itemsRestocked"`
	Continuation    bool      `json:"continuation"`
	Error           string    `json:"error,omitempty"`
}

// Store provides access to the latest cycle report.
type Store interface {
	Last() (Report, bool)
	Record(report Report)
	Cycles() int
}

// MemoryStore keeps the last report in-memory and guards access with a RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	last   Report
	has    bool
	cycles int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Last returns the most recent report and whether any cycle has finished yet.
func (s *MemoryStore) Last() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.last, s.has
}

// Record replaces the latest report.
func (s *MemoryStore) Record(report Report) {
	s.mu.Lock()
	s.last = report
	s.has = true
	s.cycles++
	s.mu.Unlock()
}

// Cycles returns the number of recorded cycles since start.
func (s *MemoryStore) Cycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cycles
}
