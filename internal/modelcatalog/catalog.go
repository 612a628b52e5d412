package modelcatalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/oremus-labs/wsconfig-core/internal/logutil"
	"github.com/oremus-labs/wsconfig-core/internal/metrics"
)

// CatalogError indicates a malformed or incomplete catalog document; fatal
// at startup.
type CatalogError struct {
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog error: %s", e.Reason)
}

// Catalog is the process-wide, read-only index built from the declarative
// catalog document. It is safe for concurrent reads after Load.
type Catalog struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	order    []string // catalog order, preserved so reruns are deterministic
	warnings []string
}

// New constructs an empty catalog. Use Load to populate it.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Load parses the catalog document at path (a single JSON array of
// entries), validates it against the declarative schema, decodes it into
// the tagged-union Go types, and replaces the catalog's contents
// atomically. Unknown fields are tolerated; a missing required field or a
// schema violation is a fatal CatalogError.
func (c *Catalog) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &CatalogError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	return c.LoadBytes(data)
}

// LoadBytes is Load without the filesystem round-trip, used by tests and by
// callers that fetch the catalog document from elsewhere (e.g. a sync
// service writing it to a known path first).
func (c *Catalog) LoadBytes(data []byte) error {
	if err := validateAgainstSchema(data); err != nil {
		return err
	}

	var rawEntries []Entry
	if err := json.Unmarshal(data, &rawEntries); err != nil {
		return &CatalogError{Reason: fmt.Sprintf("decode catalog: %v", err)}
	}

	entries := make(map[string]*Entry, len(rawEntries))
	order := make([]string, 0, len(rawEntries))
	var warnings []string

	for i := range rawEntries {
		entry := &rawEntries[i]
		if entry.ID == "" {
			return &CatalogError{Reason: "catalog entry missing required 'id'"}
		}
		if len(entry.Variants) == 0 {
			return &CatalogError{Reason: fmt.Sprintf("entry %s has no variants", entry.ID)}
		}
		for _, v := range entry.Variants {
			if v.VRAMMinMB > v.VRAMRecommendedMB {
				return &CatalogError{Reason: fmt.Sprintf("entry %s variant %s: vram_min_mb > vram_recommended_mb", entry.ID, v.ID)}
			}
			if v.Precision.Kind == PrecisionUnknown {
				msg := fmt.Sprintf("entry %s variant %s: unknown precision %q", entry.ID, v.ID, v.Precision.Raw)
				entry.Warnings = append(entry.Warnings, msg)
				warnings = append(warnings, msg)
			}
		}
		if _, dup := entries[entry.ID]; dup {
			return &CatalogError{Reason: fmt.Sprintf("duplicate entry id %s", entry.ID)}
		}
		entries[entry.ID] = entry
		order = append(order, entry.ID)
	}

	c.mu.Lock()
	c.entries = entries
	c.order = order
	c.warnings = warnings
	c.mu.Unlock()

	for _, w := range warnings {
		logutil.Info("catalog warning", map[string]interface{}{"detail": w})
	}
	logutil.Info("catalog loaded", map[string]interface{}{"count": len(entries)})
	metrics.SetCatalogEntries(len(entries))
	return nil
}

// Get returns the catalog entry by id, or nil if unknown.
func (c *Catalog) Get(id string) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

// All returns every catalog entry in stable catalog order.
func (c *Catalog) All() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// CandidatesFor returns every entry that declares support for the given
// modality, in stable catalog order.
func (c *Catalog) CandidatesFor(modality Modality) []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, 0)
	for _, id := range c.order {
		e := c.entries[id]
		if e.Serves(modality) {
			out = append(out, e)
		}
	}
	return out
}

// VariantsOf returns the variants of modelID that declare support for
// platform, ordered from highest to lowest quality precision (catalog
// order, per the invariant that variants are authored highest-quality
// first).
func (c *Catalog) VariantsOf(modelID, platform string) []Variant {
	c.mu.RLock()
	entry, ok := c.entries[modelID]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	out := make([]Variant, 0, len(entry.Variants))
	for _, v := range entry.Variants {
		support, declared := v.PlatformSupport[platform]
		if !declared || !support.Supported {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Count returns the number of loaded entries.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Warnings returns non-fatal decode warnings accumulated during the last
// Load (e.g. unknown precisions).
func (c *Catalog) Warnings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}
