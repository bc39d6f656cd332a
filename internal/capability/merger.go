// Package capability resolves cross-cutting model capabilities for a
// roster of debate participants.
//
// A session-wide feature (web search, image upload) is only enabled when
// every participant's model supports it; a single unsupported model
// forces the capability off for the whole group. There is no partial or
// majority logic.
package capability

import (
	"errors"
	"fmt"
)

// Capabilities are the per-model feature flags tracked for sessions.
type Capabilities struct {
	WebSearch       bool
	ImageUpload     bool
	DocumentUpload  bool
	ImageGeneration bool
	VideoGeneration bool
}

// ModelRef identifies one participant's model for capability lookup.
type ModelRef struct {
	Provider string
	Model    string
}

// Registry looks up the capability flags for a provider's model.
type Registry interface {
	ModelCapabilities(provider, model string) (Capabilities, error)
}

// ErrEmptyRoster is returned when a merge is requested for zero
// participants. The result of merging nothing is deliberately an error
// rather than an implicit all-true.
var ErrEmptyRoster = errors.New("capability: empty participant roster")

// MergeStrict computes the conjunction of every tracked capability
// across all refs: a capability is available for the session only if
// every model supports it. Lookup failures propagate.
func MergeStrict(reg Registry, refs []ModelRef) (Capabilities, error) {
	if len(refs) == 0 {
		return Capabilities{}, ErrEmptyRoster
	}

	merged := Capabilities{
		WebSearch:       true,
		ImageUpload:     true,
		DocumentUpload:  true,
		ImageGeneration: true,
		VideoGeneration: true,
	}

	for _, ref := range refs {
		caps, err := reg.ModelCapabilities(ref.Provider, ref.Model)
		if err != nil {
			return Capabilities{}, fmt.Errorf("capability lookup for %s/%s: %w", ref.Provider, ref.Model, err)
		}
		merged.WebSearch = merged.WebSearch && caps.WebSearch
		merged.ImageUpload = merged.ImageUpload && caps.ImageUpload
		merged.DocumentUpload = merged.DocumentUpload && caps.DocumentUpload
		merged.ImageGeneration = merged.ImageGeneration && caps.ImageGeneration
		merged.VideoGeneration = merged.VideoGeneration && caps.VideoGeneration
	}

	return merged, nil
}
