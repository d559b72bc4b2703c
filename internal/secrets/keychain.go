package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// keychainStore wraps zalando/go-keyring for OS keychain access.
type keychainStore struct {
	service string
}

func newKeychainStore() *keychainStore {
	return &keychainStore{service: serviceName}
}

func (k *keychainStore) Get(key string) (string, error) {
	val, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return val, err
}

func (k *keychainStore) Set(key, value string) error {
	return keyring.Set(k.service, key, value)
}

func (k *keychainStore) Delete(key string) error {
	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
