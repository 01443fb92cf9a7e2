package month_ledger

import (
	"context"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu        sync.Mutex
	ledgers   map[string]MonthLedger
	saveCount int
	loadErr   error
	saveErr   error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{ledgers: make(map[string]MonthLedger)}
}

func (s *RepositoryStub) Load(ctx context.Context, year int, month time.Month) (MonthLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return NewMonthLedger(year, month), s.loadErr
	}
	if ledger, ok := s.ledgers[Label(year, month)]; ok {
		return ledger.Clone(), nil
	}
	return NewMonthLedger(year, month), nil
}

func (s *RepositoryStub) Save(ctx context.Context, ledger MonthLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ledgers[ledger.Label()] = ledger.Clone()
	s.saveCount++
	return nil
}

func (s *RepositoryStub) Location(year int, month time.Month) string {
	return "memory://" + Label(year, month)
}

func (s *RepositoryStub) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

func (s *RepositoryStub) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func (s *RepositoryStub) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount
}

func (s *RepositoryStub) Stored(year int, month time.Month) (MonthLedger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.ledgers[Label(year, month)]
	return ledger.Clone(), ok
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers = make(map[string]MonthLedger)
	s.saveCount = 0
	s.loadErr = nil
	s.saveErr = nil
}
