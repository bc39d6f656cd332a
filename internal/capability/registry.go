package capability

import "fmt"

// BuiltinRegistry is a static Registry covering well-known hosted models.
// Callers with live model metadata should implement Registry themselves;
// this table serves the CLI and sensible defaults.
type BuiltinRegistry struct{}

// NewBuiltinRegistry returns the static registry.
func NewBuiltinRegistry() *BuiltinRegistry {
	return &BuiltinRegistry{}
}

type modelKey struct {
	provider string
	model    string
}

// builtinModels lists capability flags for the models the app ships
// presets for. Flags mirror provider documentation at the time of
// writing; unknown models are a lookup error, never a silent default.
var builtinModels = map[modelKey]Capabilities{
	{"anthropic", "claude-sonnet-4"}: {WebSearch: true, ImageUpload: true, DocumentUpload: true},
	{"anthropic", "claude-opus-4"}:   {WebSearch: true, ImageUpload: true, DocumentUpload: true},
	{"anthropic", "claude-haiku-3"}:  {ImageUpload: true, DocumentUpload: true},

	{"openai", "gpt-4o"}:      {WebSearch: true, ImageUpload: true, DocumentUpload: true, ImageGeneration: true},
	{"openai", "gpt-4o-mini"}: {WebSearch: true, ImageUpload: true},
	{"openai", "o3-mini"}:     {DocumentUpload: true},

	{"google", "gemini-2.0-flash"}: {WebSearch: true, ImageUpload: true, DocumentUpload: true, VideoGeneration: true},
	{"google", "gemini-1.5-pro"}:   {WebSearch: true, ImageUpload: true, DocumentUpload: true},

	{"xai", "grok-3"}: {WebSearch: true, ImageUpload: true},
}

// ModelCapabilities implements Registry.
func (r *BuiltinRegistry) ModelCapabilities(provider, model string) (Capabilities, error) {
	caps, ok := builtinModels[modelKey{provider: provider, model: model}]
	if !ok {
		return Capabilities{}, fmt.Errorf("unknown model %s/%s", provider, model)
	}
	return caps, nil
}

// KnownModels returns the provider/model pairs present in the builtin
// table, in unspecified order.
func (r *BuiltinRegistry) KnownModels() []ModelRef {
	refs := make([]ModelRef, 0, len(builtinModels))
	for key := range builtinModels {
		refs = append(refs, ModelRef{Provider: key.provider, Model: key.model})
	}
	return refs
}
