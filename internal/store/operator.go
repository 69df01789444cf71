package store

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when setting a blank operator password.
var ErrEmptyPassword = errors.New("operator password must not be empty")

// SetOperatorPassword stores a bcrypt hash of password. Setting the password
// already in place is a no-op; a new password logs every session out.
func (s *Store) SetOperatorPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if ok, err := s.VerifyOperator(password); err != nil {
		return err
	} else if ok {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash operator password: %w", err)
	}
	if err := s.setSetting(settingOperatorHash, string(hash)); err != nil {
		return fmt.Errorf("store operator password: %w", err)
	}
	if err := s.DeleteAllAuthSessions(); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	slog.Info("operator password updated")
	return nil
}

// HasOperator reports whether an operator password has been set.
func (s *Store) HasOperator() (bool, error) {
	hash, err := s.getSetting(settingOperatorHash)
	return hash != "", err
}

// VerifyOperator checks password against the stored hash. It returns false
// when no password has been set.
func (s *Store) VerifyOperator(password string) (bool, error) {
	hash, err := s.getSetting(settingOperatorHash)
	if err != nil {
		return false, err
	}
	if hash == "" {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify operator password: %w", err)
	}
	return true, nil
}
