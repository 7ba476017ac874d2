// Package dictionary loads the static name and fact data read once at
// startup. A Dictionary is immutable after Load and safe for concurrent
// readers without synchronization.
package dictionary

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
)

// Dictionary maps common snake names to canonical (scientific) names,
// case-insensitively, and carries an optional fact per canonical name.
type Dictionary struct {
	// byLower maps the lowercased form of every key and value to the
	// canonical name it resolves to.
	byLower map[string]string
	// names is the union of keys and values in sorted order.
	names []string
	// canonicals is the distinct value set in sorted order.
	canonicals []string
	// facts maps canonical names to a short fact line.
	facts map[string]string
}

// Load reads the common-name dictionary and, when factsPath is
// non-empty, the facts file.
func Load(namesPath, factsPath string) (*Dictionary, error) {
	names, err := readStringMap(namesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load name dictionary: %w", err)
	}

	facts := map[string]string{}
	if factsPath != "" {
		facts, err = readStringMap(factsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load facts: %w", err)
		}
	}

	return New(names, facts), nil
}

// New builds a Dictionary from in-memory maps. Exposed for tests.
func New(names, facts map[string]string) *Dictionary {
	d := &Dictionary{
		byLower: make(map[string]string, len(names)*2),
		facts:   make(map[string]string, len(facts)),
	}

	union := make(map[string]struct{}, len(names)*2)
	canonicalSet := make(map[string]struct{}, len(names))
	for common, canonical := range names {
		d.byLower[strings.ToLower(common)] = canonical
		d.byLower[strings.ToLower(canonical)] = canonical
		union[common] = struct{}{}
		union[canonical] = struct{}{}
		canonicalSet[canonical] = struct{}{}
	}

	d.names = make([]string, 0, len(union))
	for name := range union {
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)

	d.canonicals = make([]string, 0, len(canonicalSet))
	for c := range canonicalSet {
		d.canonicals = append(d.canonicals, c)
	}
	sort.Strings(d.canonicals)

	for k, v := range facts {
		d.facts[k] = v
	}

	return d
}

// Canonical resolves a name (common or canonical, any casing) to its
// canonical form.
func (d *Dictionary) Canonical(name string) (string, bool) {
	c, ok := d.byLower[strings.ToLower(name)]
	return c, ok
}

// Names returns the union of common and canonical names in sorted
// order. The returned slice is a copy.
func (d *Dictionary) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Canonicals returns the distinct canonical names in sorted order. The
// returned slice is a copy.
func (d *Dictionary) Canonicals() []string {
	out := make([]string, len(d.canonicals))
	copy(out, d.canonicals)
	return out
}

// RandomCanonical returns a canonical name chosen uniformly at random.
func (d *Dictionary) RandomCanonical(rng *rand.Rand) string {
	if len(d.canonicals) == 0 {
		return ""
	}
	return d.canonicals[rng.Intn(len(d.canonicals))]
}

// Fact returns the fact line for a canonical name, if one exists.
func (d *Dictionary) Fact(canonical string) (string, bool) {
	f, ok := d.facts[canonical]
	return f, ok
}

// Len returns the number of entries in the name union.
func (d *Dictionary) Len() int {
	return len(d.names)
}

func readStringMap(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return m, nil
}
