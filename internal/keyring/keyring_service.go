package keyring

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	ring "github.com/99designs/keyring"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
)

type Service struct {
	ring ring.Keyring
}

func MustNewService(name string) *Service {
	svc, err := NewService(ring.Config{
		ServiceName:  name,
		KeychainName: "login",
		AllowedBackends: []ring.BackendType{
			ring.SecretServiceBackend,
			ring.KeychainBackend,
			ring.WinCredBackend,
			ring.KeyCtlBackend,
			ring.KWalletBackend,
			ring.PassBackend,
		},
	})
	if err != nil {
		log.Fatalf("creating keyring: %s", err)
	}

	return svc
}

func NewService(config ring.Config) (*Service, error) {
	r, err := ring.Open(config)
	if err != nil {
		return nil, fmt.Errorf("opening keyring %q: %w", config.ServiceName, err)
	}
	return &Service{ring: r}, nil
}

// Get returns an empty string when the key is not stored.
func (s *Service) Get(key string) (string, error) {
	value, err := s.ring.Get(key)
	if errors.Is(err, ring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting key %q: %w", key, err)
	}
	return string(value.Data), nil
}

// Set stores value under key. The label may be shown by the system prompt when the item
// is accessed.
func (s *Service) Set(key, value string, extra lib.KeyExtras) error {
	item := ring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       extra.Label,
		Description: extra.Description,
	}
	if err := s.ring.Set(item); err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}
	return nil
}

func (s *Service) Remove(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, ring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing key %q: %w", key, err)
	}
	return nil
}
