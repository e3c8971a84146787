package memory

import (
	"sync"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps engine settings in a flat map of dotted keys such as
// "fusion.vector_weight". Nothing is persisted.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// GetInt accepts any integer kind; float values are not truncated and read as 0.
func (s *ConfigStore) GetInt(key string) int {
	switch v := s.lookup(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat64 widens integers so weights may be written as 1 instead of 1.0.
func (s *ConfigStore) GetFloat64(key string) float64 {
	switch v := s.lookup(key).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.lookup(key).(bool)
	return b
}

// GetStringSlice returns the string elements of a list value, skipping others.
func (s *ConfigStore) GetStringSlice(key string) []string {
	switch v := s.lookup(key).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }

func (s *ConfigStore) lookup(key string) any {
	val, _ := s.Get(key)
	return val
}
