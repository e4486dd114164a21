package terms

import (
	"context"
	"fmt"
	"strings"
)

// Source supplies the term lists for a pipeline run. Load returns a snapshot
// that later changes to the underlying source do not affect.
type Source interface {
	Load(ctx context.Context) (Lists, error)
}

// ActiveListProvider is implemented by stores that keep configurable term lists.
type ActiveListProvider interface {
	ActiveTermLists(ctx context.Context) (Lists, error)
}

// StaticSource always returns the same lists.
type StaticSource struct {
	lists Lists
}

// NewStaticSource wraps lists; nil or empty lists mean the defaults.
func NewStaticSource(lists Lists) *StaticSource {
	if len(lists) == 0 {
		lists = Defaults()
	}
	return &StaticSource{lists: Normalize(lists)}
}

func (s *StaticSource) Load(context.Context) (Lists, error) {
	return s.lists.Clone(), nil
}

// StoreSource reads active lists from storage on every Load.
type StoreSource struct {
	provider ActiveListProvider
}

func NewStoreSource(provider ActiveListProvider) *StoreSource {
	return &StoreSource{provider: provider}
}

func (s *StoreSource) Load(ctx context.Context) (Lists, error) {
	lists, err := s.provider.ActiveTermLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load term lists: %w", err)
	}
	lists = Normalize(lists)
	if len(lists) == 0 {
		return Defaults(), nil
	}
	return lists, nil
}

// Normalize lower-cases category keys and merges lists that share a category.
// A term already present in its category, ignoring case and surrounding
// space, is dropped so one occurrence is never counted twice.
func Normalize(lists Lists) Lists {
	out := make(Lists, len(lists))
	seen := make(map[string]map[string]bool, len(lists))
	for _, category := range lists.Categories() {
		key := strings.ToLower(strings.TrimSpace(category))
		if key == "" {
			continue
		}
		if seen[key] == nil {
			seen[key] = make(map[string]bool)
		}
		for _, term := range lists[category] {
			term = strings.TrimSpace(term)
			folded := strings.ToLower(term)
			if term == "" || seen[key][folded] {
				continue
			}
			seen[key][folded] = true
			out[key] = append(out[key], term)
		}
	}
	return out
}
