package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]RoleConfig)
	registryMu sync.RWMutex
)

// Register adds a profile to the registry.
// Panics if the profile is invalid or its key is already registered.
func Register(cfg RoleConfig) {
	if err := Add(cfg); err != nil {
		panic(err.Error())
	}
}

// Add registers a profile, returning an error instead of panicking.
// Used for profiles loaded at runtime from disk.
func Add(cfg RoleConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[cfg.Key]; exists {
		return fmt.Errorf("profile already registered: %s", cfg.Key)
	}
	registry[cfg.Key] = cfg.WithDefaults()
	return nil
}

// Get returns a profile by key.
// Returns false if not found.
func Get(key string) (RoleConfig, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	cfg, ok := registry[key]
	return cfg, ok
}

// All returns all registered profiles.
// Sorted by group then by key for consistent ordering.
func All() []RoleConfig {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]RoleConfig, 0, len(registry))
	for _, cfg := range registry {
		result = append(result, cfg)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all profiles for a specific group.
// Sorted by key for consistent ordering.
func ByGroup(group string) []RoleConfig {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []RoleConfig
	for _, cfg := range registry {
		if cfg.Group == group {
			result = append(result, cfg)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, cfg := range registry {
		seen[cfg.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// ProfileCount returns the number of registered profiles.
func ProfileCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered profiles.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]RoleConfig)
}
