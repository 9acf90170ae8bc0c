// Package config provides the broker property bag and the configuration
// derived from it for metrics reporting.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrMissingProperty is returned when a required property is absent.
	ErrMissingProperty = errors.New("missing required property")
	// ErrInvalidProperty is returned when a property cannot be parsed.
	ErrInvalidProperty = errors.New("invalid property value")
)

// Properties is a mutable, concurrency-safe bag of string properties
// handed to reporters by the host.
type Properties struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewProperties creates a property bag holding a copy of values.
func NewProperties(values map[string]string) *Properties {
	p := &Properties{props: make(map[string]string, len(values))}
	for k, v := range values {
		p.props[k] = v
	}
	return p
}

// Set stores a raw property value.
func (p *Properties) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.props == nil {
		p.props = make(map[string]string)
	}
	p.props[key] = value
}

// Lookup returns the raw value and whether it is present.
func (p *Properties) Lookup(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.props[key]
	return v, ok
}

// Contains reports whether key is present.
func (p *Properties) Contains(key string) bool {
	_, ok := p.Lookup(key)
	return ok
}

// GetString returns a required string property.
func (p *Properties) GetString(key string) (string, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	return v, nil
}

// GetStringDefault returns the property or def when absent.
func (p *Properties) GetStringDefault(key, def string) string {
	if v, ok := p.Lookup(key); ok {
		return v
	}
	return def
}

// GetInt returns a required integer property.
func (p *Properties) GetInt(key string) (int, error) {
	v, err := p.GetString(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidProperty, key, v)
	}
	return n, nil
}

// GetIntDefault returns an integer property or def when absent.
// A present but malformed value is still an error.
func (p *Properties) GetIntDefault(key string, def int) (int, error) {
	if !p.Contains(key) {
		return def, nil
	}
	return p.GetInt(key)
}

// GetIntInRange returns an integer property (or def when absent) that must
// fall within [min, max].
func (p *Properties) GetIntInRange(key string, def, min, max int) (int, error) {
	n, err := p.GetIntDefault(key, def)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: %s=%d not in range [%d, %d]", ErrInvalidProperty, key, n, min, max)
	}
	return n, nil
}

// GetBool returns a boolean property or def when absent.
func (p *Properties) GetBool(key string, def bool) (bool, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidProperty, key, v)
	}
	return b, nil
}

// GetCSV returns a comma-separated property as a trimmed list, dropping
// empty entries. Absent keys yield nil.
func (p *Properties) GetCSV(key string) []string {
	v, ok := p.Lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Keys returns all property names in sorted order.
func (p *Properties) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.props))
	for k := range p.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values.
func (p *Properties) Map() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.props))
	for k, v := range p.props {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the bag.
func (p *Properties) Clone() *Properties {
	return NewProperties(p.Map())
}
