package provider

import (
	"fmt"
	"strings"

	"animap/internal/media"
	"animap/internal/services"
)

// Registry is an ordered, immutable set of providers.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// NewRegistry validates and registers entries in order. Names must be unique.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, services.Wrap(services.ErrConfiguration, "provider", "register", "provider name required", nil)
		}
		if _, exists := r.byName[name]; exists {
			return nil, services.Wrap(services.ErrConfiguration, "provider", "register", fmt.Sprintf("duplicate provider %q", name), nil)
		}
		if !entry.Type.Valid() {
			return nil, services.Wrap(services.ErrUnknownMediaType, "provider", "register", fmt.Sprintf("provider %q has type %q", name, entry.Type), nil)
		}
		if entry.Provider == nil {
			return nil, services.Wrap(services.ErrConfiguration, "provider", "register", fmt.Sprintf("provider %q has no adapter", name), nil)
		}
		entry.Name = name
		r.byName[name] = len(r.entries)
		r.entries = append(r.entries, entry)
	}
	return r, nil
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	return append([]Entry(nil), r.entries...)
}

// ForType returns the entries serving mediaType, in registration order.
func (r *Registry) ForType(mediaType media.Type) []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Type == mediaType {
			out = append(out, entry)
		}
	}
	return out
}

// Lookup finds an entry by name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	idx, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// ForLocator finds the entry whose base address owns locator and returns the
// provider-native id that follows it. The longest matching base wins.
func (r *Registry) ForLocator(locator string) (Entry, string, bool) {
	if r == nil {
		return Entry{}, "", false
	}
	best := -1
	for i, entry := range r.entries {
		base := strings.TrimRight(entry.BaseURL, "/")
		if base == "" || !strings.HasPrefix(locator, base) {
			continue
		}
		rest := locator[len(base):]
		if rest != "" && rest[0] != '/' {
			continue
		}
		if best < 0 || len(base) > len(strings.TrimRight(r.entries[best].BaseURL, "/")) {
			best = i
		}
	}
	if best < 0 {
		return Entry{}, "", false
	}
	entry := r.entries[best]
	id := strings.TrimPrefix(locator[len(strings.TrimRight(entry.BaseURL, "/")):], "/")
	return entry, id, true
}

// Policy returns the cache policy of the named provider.
func (r *Registry) Policy(name string) (media.CachePolicy, bool) {
	entry, ok := r.Lookup(name)
	if !ok {
		return media.CachePolicy{}, false
	}
	return entry.Policy, true
}

// Len reports the number of registered providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
