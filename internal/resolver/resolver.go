// Package resolver turns a free-text snake query into an ordered list
// of candidate canonical names using fuzzy string similarity.
package resolver

import (
	"math"
	"math/rand"
	"strings"
	"unicode/utf8"

	edlib "github.com/hbollon/go-edlib"

	"discord-snake-bot/internal/dictionary"
)

// DefaultThreshold is the minimum similarity score (0-100) a name must
// reach on either metric to become a candidate.
const DefaultThreshold = 80

// Scorer computes string similarity on a 0-100 scale. Ratio compares
// whole strings; PartialRatio compares the shorter string against
// substrings of the longer, so "cobra" scores 100 against "king cobra".
type Scorer interface {
	Ratio(a, b string) int
	PartialRatio(a, b string) int
}

// EditScorer is the default Scorer, backed by go-edlib's Levenshtein
// similarity.
type EditScorer struct{}

// Ratio returns the whole-string Levenshtein similarity of a and b.
func (EditScorer) Ratio(a, b string) int {
	s, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return int(math.Round(float64(s) * 100))
}

// PartialRatio returns the best Ratio of the shorter string against
// every equal-length window of the longer one.
func (e EditScorer) PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if utf8.RuneCountInString(a) > utf8.RuneCountInString(b) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return e.Ratio(string(short), string(long))
	}

	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		score := e.Ratio(string(short), string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Config holds resolver construction options.
type Config struct {
	Threshold int
	Scorer    Scorer
	Rand      *rand.Rand
}

// Resolver matches queries against a name dictionary.
type Resolver struct {
	dict      *dictionary.Dictionary
	scorer    Scorer
	threshold int
	rng       *rand.Rand
}

// New creates a Resolver over the given dictionary. A nil or
// partially-filled Config falls back to defaults.
func New(dict *dictionary.Dictionary, cfg *Config) *Resolver {
	r := &Resolver{
		dict:      dict,
		scorer:    EditScorer{},
		threshold: DefaultThreshold,
	}
	if cfg != nil {
		if cfg.Threshold > 0 {
			r.threshold = cfg.Threshold
		}
		if cfg.Scorer != nil {
			r.scorer = cfg.Scorer
		}
		if cfg.Rand != nil {
			r.rng = cfg.Rand
		}
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return r
}

// Resolve returns the candidate canonical names for a query.
//
// An empty query yields a single random canonical name. An exact
// case-insensitive match on any common or canonical name yields exactly
// that entry, never diluted by weaker partial matches. Otherwise every
// name whose Ratio or PartialRatio against the query reaches the
// threshold contributes its canonical form, deduplicated, in dictionary
// order. Resolve is pure apart from the random pick: it sends nothing
// and mutates nothing.
func (r *Resolver) Resolve(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{r.dict.RandomCanonical(r.rng)}
	}

	q := strings.ToLower(query)
	names := r.dict.Names()

	for _, name := range names {
		if strings.ToLower(name) == q {
			if canonical, ok := r.dict.Canonical(name); ok {
				return []string{canonical}
			}
			return []string{name}
		}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, name := range names {
		ln := strings.ToLower(name)
		if r.scorer.Ratio(q, ln) < r.threshold && r.scorer.PartialRatio(q, ln) < r.threshold {
			continue
		}
		canonical, ok := r.dict.Canonical(name)
		if !ok {
			canonical = name
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
