package llmstream

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/capabilities/reasoning.yaml
var reasoningCapabilitiesYAML []byte

// Capabilities Philosophy:
//
// Some providers deliver reasoning inside ordinary content behind textual
// markers, and only for certain models. Whether to scan for markers at all is
// decided by a MODEL-NAME HEURISTIC: a list of known reasoning-capable name
// substrings per provider. The heuristic is metadata, not enforcement - a
// miss just means content streams through as plain text.
//
// The embedded list may lag behind model releases. Library users can override
// it by:
//  1. Calling LoadCapabilitiesFromFile() with custom YAML
//  2. Calling RegisterReasoningModels() programmatically

// ReasoningCapabilities is the full heuristic configuration.
type ReasoningCapabilities struct {
	Version     string              `yaml:"version"`
	LastUpdated string              `yaml:"last_updated"`
	Providers   map[string][]string `yaml:"providers"`
}

// CapabilityRegistry holds per-provider reasoning-model name patterns.
type CapabilityRegistry struct {
	patterns map[string][]string
	mu       sync.RWMutex
}

var (
	globalRegistry     *CapabilityRegistry
	globalRegistryOnce sync.Once
)

// GetCapabilityRegistry returns the global capability registry (singleton).
func GetCapabilityRegistry() *CapabilityRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = &CapabilityRegistry{
			patterns: make(map[string][]string),
		}
		if err := globalRegistry.loadEmbedded(); err != nil {
			// Don't panic on a bad embedded file - the heuristic degrades to
			// "no model is reasoning-capable", which is only cosmetic.
			fmt.Fprintf(os.Stderr, "Warning: failed to load reasoning capabilities: %v\n", err)
		}
	})
	return globalRegistry
}

func (r *CapabilityRegistry) loadEmbedded() error {
	var caps ReasoningCapabilities
	if err := yaml.Unmarshal(reasoningCapabilitiesYAML, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal reasoning capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for provider, patterns := range caps.Providers {
		r.patterns[provider] = patterns
	}
	return nil
}

// IsReasoningModel reports whether the model name matches a known
// reasoning-capable pattern for the provider. Matching is case-insensitive
// substring containment.
func (r *CapabilityRegistry) IsReasoningModel(provider, model string) bool {
	r.mu.RLock()
	patterns := r.patterns[provider]
	r.mu.RUnlock()

	lowered := strings.ToLower(model)
	for _, p := range patterns {
		if strings.Contains(lowered, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// RegisterReasoningModels replaces the pattern list for a provider.
func (r *CapabilityRegistry) RegisterReasoningModels(provider string, patterns []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[provider] = patterns
}

// LoadCapabilitiesFromFile loads heuristic patterns from a YAML file,
// replacing the lists for every provider the file names. The format matches
// the embedded config/capabilities/reasoning.yaml.
func (r *CapabilityRegistry) LoadCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}

	var caps ReasoningCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for provider, patterns := range caps.Providers {
		r.patterns[provider] = patterns
	}
	return nil
}

// IsReasoningModel is a convenience function against the global registry.
func IsReasoningModel(provider, model string) bool {
	return GetCapabilityRegistry().IsReasoningModel(provider, model)
}

// RegisterReasoningModels is a convenience function against the global registry.
func RegisterReasoningModels(provider string, patterns []string) {
	GetCapabilityRegistry().RegisterReasoningModels(provider, patterns)
}

// LoadCapabilitiesFromFile is a convenience function against the global registry.
func LoadCapabilitiesFromFile(path string) error {
	return GetCapabilityRegistry().LoadCapabilitiesFromFile(path)
}
