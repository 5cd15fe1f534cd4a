package settings

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is the process-wide catalog of Settings and Commands. It is
// populated once at startup and mostly read thereafter. Canonical and
// legacy names share one case-insensitive namespace.
type Registry struct {
	mu       sync.RWMutex
	settings []*Setting
	commands []*Command
	names    map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

func (r *Registry) claim(entry *Entry) error {
	key := strings.ToLower(entry.Name())
	if _, taken := r.names[key]; taken {
		return fmt.Errorf("settings: name %q already registered", entry.Name())
	}
	var legacyKey string
	if entry.LegacyName() != "" {
		legacyKey = strings.ToLower(entry.LegacyName())
		if _, taken := r.names[legacyKey]; taken {
			return fmt.Errorf("settings: legacy name %q already registered", entry.LegacyName())
		}
		if legacyKey == key {
			return fmt.Errorf("settings: legacy name %q duplicates canonical name", entry.LegacyName())
		}
	}
	r.names[key] = struct{}{}
	if legacyKey != "" {
		r.names[legacyKey] = struct{}{}
	}
	return nil
}

// AddSetting registers a setting, failing on any name collision.
func (r *Registry) AddSetting(s *Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.claim(&s.Entry); err != nil {
		return err
	}
	r.settings = append(r.settings, s)
	return nil
}

// AddCommand registers a command, failing on any name collision.
func (r *Registry) AddCommand(c *Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.claim(&c.Entry); err != nil {
		return err
	}
	r.commands = append(r.commands, c)
	return nil
}

// MustAddCommand registers a command and panics on collision. Startup
// registration uses this; collisions there are programming errors.
func (r *Registry) MustAddCommand(c *Command) {
	if err := r.AddCommand(c); err != nil {
		panic(err)
	}
}

// MustAddSetting registers a setting and panics on collision.
func (r *Registry) MustAddSetting(s *Setting) {
	if err := r.AddSetting(s); err != nil {
		panic(err)
	}
}

// Settings returns the settings in registration order.
func (r *Registry) Settings() []*Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Setting, len(r.settings))
	copy(out, r.settings)
	return out
}

// Commands returns the commands in registration order.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// FindCommand looks a command up by canonical name or legacy alias.
func (r *Registry) FindCommand(key string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.commands {
		if strings.EqualFold(c.Name(), key) ||
			(c.LegacyName() != "" && strings.EqualFold(c.LegacyName(), key)) {
			return c
		}
	}
	return nil
}

// FindSetting looks a setting up by canonical name only.
func (r *Registry) FindSetting(key string) *Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.settings {
		if strings.EqualFold(s.Name(), key) {
			return s
		}
	}
	return nil
}

// FindSettingLegacy looks a setting up by legacy alias only.
func (r *Registry) FindSettingLegacy(key string) *Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.settings {
		if s.LegacyName() != "" && strings.EqualFold(s.LegacyName(), key) {
			return s
		}
	}
	return nil
}

// LoadAll pulls every setting's stored value.
func (r *Registry) LoadAll(store Storage) {
	for _, s := range r.Settings() {
		s.Load(store)
	}
}
