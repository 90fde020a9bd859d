package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bumblegum/guitarcore/storage"
)

// Store owns the active profile and its persisted copy.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	logger  *slog.Logger
	active  Profile
}

func NewStore(backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger, active: Default()}
}

// Load reads the persisted profile. Anything that fails the record checks or
// validation is replaced by the defaults, which are written back. Load never
// fails; a failed write of the defaults is only logged.
func (s *Store) Load() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.read()
	if err == nil {
		s.active = p
		s.logger.Info("profile loaded", "device", p.DeviceName, "version", p.Metadata.Version, "usb_mode", p.USBMode)
		return p
	}

	var ce *storage.CorruptionError
	if errors.As(err, &ce) && ce.Reason == storage.ReasonEmpty {
		s.logger.Info("no stored profile, using defaults")
	} else {
		s.logger.Warn("stored profile rejected, using defaults", "error", err)
	}
	s.active = Default()
	if err := s.persist(s.active); err != nil {
		s.logger.Error("failed to store default profile", "error", err)
	}
	return s.active
}

func (s *Store) read() (Profile, error) {
	payload, err := storage.ReadRecord(s.backend, storage.ProfileMagic)
	if err != nil {
		return Profile{}, err
	}
	p, warnings, err := Parse(payload)
	if err != nil {
		return Profile{}, &storage.CorruptionError{Reason: storage.ReasonPayload, Detail: err.Error()}
	}
	for _, w := range warnings {
		s.logger.Debug("stored profile key defaulted", "field", w.Field, "reason", w.Reason)
	}
	if err := Validate(p); err != nil {
		return Profile{}, &storage.CorruptionError{Reason: storage.ReasonPayload, Detail: err.Error()}
	}
	return p, nil
}

func (s *Store) persist(p Profile) error {
	return storage.WriteRecord(s.backend, storage.ProfileMagic, Generate(p))
}

// Active returns a copy of the active profile.
func (s *Store) Active() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Text returns the active profile as interchange JSON.
func (s *Store) Text() []byte {
	return Generate(s.Active())
}

// Update parses, validates and persists text, then makes it the active
// profile. On any error the active profile is left untouched. Keys that fell
// back to their defaults are returned as warnings.
func (s *Store) Update(text []byte) ([]ParseWarning, error) {
	p, warnings, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(p); err != nil {
		return warnings, err
	}
	for _, w := range warnings {
		s.logger.Warn("profile key defaulted", "field", w.Field, "reason", w.Reason)
	}
	return warnings, nil
}

// Replace validates and persists p, then makes it the active profile.
func (s *Store) Replace(p Profile) error {
	if err := Validate(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(p); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	s.active = p
	s.logger.Info("profile updated", "device", p.DeviceName, "usb_mode", p.USBMode)
	return nil
}

// SetStoredMode records the USB personality to boot into. Nothing is written
// when it is already stored.
func (s *Store) SetStoredMode(name string) error {
	p := s.Active()
	if p.USBMode == name {
		return nil
	}
	p.USBMode = name
	return s.Replace(p)
}

type eraser interface {
	Erase() error
}

// Erase wipes the persisted profile and reverts to the defaults in memory.
// The next Load writes the defaults back.
func (s *Store) Erase() error {
	e, ok := s.backend.(eraser)
	if !ok {
		return errors.New("storage backend cannot be erased")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := e.Erase(); err != nil {
		return err
	}
	s.active = Default()
	s.logger.Info("profile erased")
	return nil
}
