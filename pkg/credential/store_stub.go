package credential

import "sync"

type StubStore struct {
	mu      sync.RWMutex
	secrets map[string]string
	err     error
}

func NewStubStore() *StubStore {
	return &StubStore{secrets: make(map[string]string)}
}

// SetError makes every following call fail with err.
func (s *StubStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *StubStore) Get(user string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return "", s.err
	}
	secret, ok := s.secrets[user]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

func (s *StubStore) Set(user string, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.secrets[user] = secret
	return nil
}

func (s *StubStore) Delete(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.secrets[user]; !ok {
		return ErrNotFound
	}
	delete(s.secrets, user)
	return nil
}
