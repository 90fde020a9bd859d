package engine

import (
	"errors"

	"github.com/bumblegum/guitarcore/input"
	"github.com/bumblegum/guitarcore/mode"
	"github.com/bumblegum/guitarcore/profile"
)

// Mode returns the running personality.
func (s *Session) Mode() mode.Personality {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personality
}

// SetMode switches to the named personality. Asking for the running one
// writes nothing. Otherwise the choice is stored in the profile, the one-shot
// flag is set and the device resets.
func (s *Session) SetMode(name string) error {
	p, err := mode.ParsePersonality(name)
	if err != nil {
		return err
	}
	if p == s.Mode() {
		return nil
	}
	if err := s.store.SetStoredMode(p.String()); err != nil {
		return err
	}
	return s.arbiter.Switch(p)
}

// ConfigText returns the active profile as interchange JSON.
func (s *Session) ConfigText() []byte {
	return s.store.Text()
}

// Profile returns the active profile.
func (s *Session) Profile() profile.Profile {
	return s.store.Active()
}

// UpdateConfig replaces the profile. The new wiring applies from the next
// Step; a changed usb_mode applies from the next boot.
func (s *Session) UpdateConfig(text []byte) ([]profile.ParseWarning, error) {
	warnings, err := s.store.Update(text)
	if err != nil {
		return warnings, err
	}
	s.sampler.SetWiring(input.WiringFromProfile(s.store.Active()))
	return warnings, nil
}

// Restart resets the device.
func (s *Session) Restart() error {
	if s.board.Resetter == nil {
		return errors.New("no reset line")
	}
	s.logger.Info("restart requested")
	s.board.Resetter.Reset()
	return nil
}

// Version returns the firmware version.
func (s *Session) Version() string { return Version }
