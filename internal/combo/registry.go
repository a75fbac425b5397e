// Package combo matches a candidate's qualifying signal-tag set against a
// registry of historically-validated tag combinations.
package combo

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/propdesk/bestbets/internal/models"
)

// Store loads combo entries from a backing store. The postgres
// implementation lives in internal/warehouse.
type Store interface {
	LoadComboEntries(ctx context.Context) ([]models.ComboEntry, error)
}

// Registry maps canonical combo IDs to entries. Read-only during a run.
type Registry map[string]models.ComboEntry

// CanonicalID produces the registry key for a tag set: sorted and
// `+`-joined. The input slice is not modified.
func CanonicalID(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, "+")
}

// Load builds a registry from the store, falling back to the hardcoded
// snapshot on any failure (including an empty result). It never returns
// an error: callers always get a usable registry.
func Load(ctx context.Context, store Store) Registry {
	if store == nil {
		return fallbackRegistry()
	}
	entries, err := store.LoadComboEntries(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Combo store load failed, using fallback snapshot")
		return fallbackRegistry()
	}
	if len(entries) == 0 {
		log.Warn().Msg("Combo store returned no entries, using fallback snapshot")
		return fallbackRegistry()
	}
	registry := make(Registry, len(entries))
	for _, entry := range entries {
		if entry.ComboID == "" {
			entry.ComboID = CanonicalID(entry.Signals)
		}
		if entry.Cardinality == 0 {
			entry.Cardinality = len(entry.Signals)
		}
		registry[entry.ComboID] = entry
	}
	return registry
}

// Match finds the registry entry for a candidate's qualifying tags.
// Exact full-set match wins immediately; otherwise the subset entry with
// the highest cardinality wins (specificity over recency). Equal
// cardinality ties break by ascending combo_id, which keeps matching
// reproducible across runs regardless of map iteration order.
func Match(qualifyingTags []string, registry Registry) *models.ComboEntry {
	if len(qualifyingTags) == 0 || len(registry) == 0 {
		return nil
	}

	if entry, ok := registry[CanonicalID(qualifyingTags)]; ok {
		return &entry
	}

	tagSet := make(map[string]bool, len(qualifyingTags))
	for _, tag := range qualifyingTags {
		tagSet[tag] = true
	}

	var best *models.ComboEntry
	for id := range registry {
		entry := registry[id]
		if !subsetOf(entry.Signals, tagSet) {
			continue
		}
		if best == nil ||
			entry.Cardinality > best.Cardinality ||
			(entry.Cardinality == best.Cardinality && entry.ComboID < best.ComboID) {
			e := entry
			best = &e
		}
	}
	return best
}

func subsetOf(signals []string, tagSet map[string]bool) bool {
	if len(signals) == 0 {
		return false
	}
	for _, sig := range signals {
		if !tagSet[sig] {
			return false
		}
	}
	return true
}
