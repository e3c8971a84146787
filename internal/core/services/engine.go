package services

import (
	"sync/atomic"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// Tokenizer turns free text into a normalised, de-duplicated token set.
type Tokenizer interface {
	Tokenize(text string) []string
}

// settingsHolder stores EngineSettings for lock-free reads.
type settingsHolder struct {
	current atomic.Pointer[domain.EngineSettings]
}

// SetSettings replaces the tuning used by subsequent requests.
// In-flight requests keep the settings they started with.
func (h *settingsHolder) SetSettings(settings domain.EngineSettings) {
	h.current.Store(&settings)
}

// Settings returns the current tuning.
func (h *settingsHolder) Settings() domain.EngineSettings {
	if s := h.current.Load(); s != nil {
		return *s
	}
	return domain.DefaultEngineSettings()
}

func (h *settingsHolder) limitOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	return h.Settings().Search.DefaultLimit
}
