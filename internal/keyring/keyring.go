// Package keyring keeps the database connection string and the token signing
// secret in the OS keyring.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/RubeHicksCube/Djournal/internal/constants"
)

var (
	// ErrNotFound is returned when the requested item is not in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Item names a value djournal stores in the keyring.
type Item string

const (
	ConnectionString Item = constants.DefaultKeyringUser
	SigningSecret    Item = constants.SecretKeyringUser
)

// ParseItem maps a CLI name to an Item.
func ParseItem(name string) (Item, error) {
	switch name {
	case "dsn", string(ConnectionString):
		return ConnectionString, nil
	case "secret", string(SigningSecret):
		return SigningSecret, nil
	default:
		return "", fmt.Errorf("unknown keyring item %q (want dsn or secret)", name)
	}
}

func Get(item Item) (string, error) {
	value, err := keyring.Get(constants.AppName, string(item))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

func Set(item Item, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", item)
	}
	if err := keyring.Set(constants.AppName, string(item), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", item, err)
	}
	return nil
}

func Delete(item Item) error {
	if err := keyring.Delete(constants.AppName, string(item)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", item, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(ConnectionString)
}

// SetConnectionString stores the database connection string.
func SetConnectionString(connStr string) error {
	return Set(ConnectionString, connStr)
}

// DeleteConnectionString removes the database connection string.
func DeleteConnectionString() error {
	return Delete(ConnectionString)
}

// SigningSecretOrCreate returns the stored token signing secret, generating
// and storing a random 32-byte one on first use.
func SigningSecretOrCreate() (string, error) {
	secret, err := Get(SigningSecret)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing secret: %w", err)
	}
	secret = hex.EncodeToString(buf)
	if err := Set(SigningSecret, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
