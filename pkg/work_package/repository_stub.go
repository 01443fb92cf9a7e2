package work_package

import (
	"context"
	"sync"
)

type RepositoryStub struct {
	mu        sync.Mutex
	packages  []Persisted
	saveCount int
	saveErr   error
}

func NewRepositoryStub(packages ...Persisted) *RepositoryStub {
	return &RepositoryStub{packages: packages}
}

func (s *RepositoryStub) Load(ctx context.Context) ([]Persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Persisted{}, s.packages...), nil
}

func (s *RepositoryStub) Save(ctx context.Context, packages []Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.packages = append([]Persisted{}, packages...)
	s.saveCount++
	return nil
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

func (s *RepositoryStub) Stored() []Persisted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Persisted{}, s.packages...)
}
