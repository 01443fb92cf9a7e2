package credential

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

var ErrNotFound = errors.New("no secret stored for user")

// Store keeps a single secret per user id.
type Store interface {
	Get(user string) (string, error)
	Set(user string, secret string) error
	Delete(user string) error
}

// KeyringStore keeps secrets in the operating system keyring under one service name.
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(user string) (string, error) {
	secret, err := keyring.Get(s.service, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		log.Errorf("failed to read secret for %s from keyring: %v", user, err)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return secret, nil
}

func (s *KeyringStore) Set(user string, secret string) error {
	if err := keyring.Set(s.service, user, secret); err != nil {
		log.Errorf("failed to store secret for %s in keyring: %v", user, err)
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(user string) error {
	if err := keyring.Delete(s.service, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		log.Errorf("failed to delete secret for %s from keyring: %v", user, err)
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
