package prefs

import (
	"errors"
	"log/slog"
)

// Secured is a secure preferences store over one service of a Keychain.
type Secured struct {
	keychain Keychain
	service  string
	logger   *slog.Logger
}

// SecuredOption configures a Secured store.
type SecuredOption func(*Secured)

// WithSecuredLogger sets the logger used to report failed writes.
func WithSecuredLogger(l *slog.Logger) SecuredOption {
	return func(s *Secured) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSecured returns a store whose entries live under service in kc.
func NewSecured(kc Keychain, service string, opts ...SecuredOption) *Secured {
	s := &Secured{
		keychain: kc,
		service:  service,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Service returns the keychain service name.
func (s *Secured) Service() string { return s.service }

// Value reads name on a new goroutine and calls completion from it.
// There is no timeout: a keychain that blocks holds the completion back.
// A nil completion still performs the read and discards the result.
func (s *Secured) Value(name string, completion func(value string, ok bool)) {
	if completion == nil {
		completion = func(string, bool) {}
	}
	go func() {
		secret, err := s.keychain.Get(s.service, name)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Warn("secure read failed", "service", s.service, "key", name, "error", err)
			}
			completion("", false)
			return
		}
		completion(secret, true)
	}()
}

// SetValue writes value under name and reports whether the keychain accepted it.
func (s *Secured) SetValue(name, value string) bool {
	if err := s.keychain.Set(s.service, name, value); err != nil {
		s.logger.Warn("secure write failed", "service", s.service, "key", name, "error", err)
		return false
	}
	return true
}

// RemoveValue deletes name. It reports true when the entry is gone afterwards,
// including when it never existed.
func (s *Secured) RemoveValue(name string) bool {
	err := s.keychain.Delete(s.service, name)
	if err == nil || errors.Is(err, ErrNotFound) {
		return true
	}
	s.logger.Warn("secure delete failed", "service", s.service, "key", name, "error", err)
	return false
}
