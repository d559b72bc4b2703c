// Package secrets stores App Center app secrets outside the settings
// file. It uses the OS keychain (macOS Keychain, Windows Credential
// Manager, Linux Secret Service) when available, with a file-based
// fallback for build agents without one.
package secrets

import "errors"

// serviceName is the keychain service identifier for all stored secrets.
const serviceName = "appcenter-postbuild"

// SecretStore provides credential storage.
type SecretStore interface {
	// Get retrieves a secret by key. Returns ErrNotFound if not present.
	Get(key string) (string, error)
	// Set stores a secret under the given key, replacing any existing value.
	Set(key, value string) error
	// Delete removes a secret. No error if the key doesn't exist.
	Delete(key string) error
}

// ErrNotFound is returned when a secret key does not exist.
var ErrNotFound = errors.New("secret not found")

// Platform secret fields.
const (
	FieldAppSecret = "app_secret"
)

// SecretKey builds a canonical key for a platform app secret.
// Format: "platform/productName/field" (e.g. "ios/MyGame/app_secret").
func SecretKey(platform, productName, field string) string {
	return platform + "/" + productName + "/" + field
}

// New returns the best available SecretStore for the current environment.
// It probes the OS keychain with a set+delete cycle and falls back to a
// file store under dir.
func New(dir string) SecretStore {
	ks := newKeychainStore()
	probeKey := "__appcenter_postbuild_probe__"
	if err := ks.Set(probeKey, "ok"); err != nil {
		return newFileStore(dir)
	}
	_ = ks.Delete(probeKey)
	return ks
}

// NewFileStore returns the file-backed store, bypassing the keychain.
func NewFileStore(dir string) SecretStore {
	return newFileStore(dir)
}
