package classify

import (
	"github.com/cognicore/autocat/pkg/autocat/category"
)

// Method records how an assignment was made, for auditability.
type Method string

const (
	// MethodTermMatch means the entry's phrases intersected the
	// category's member terms.
	MethodTermMatch Method = "term-intersection"
	// MethodLanguageModel means the entry was assigned by language-model
	// comparison after no term intersection was found.
	MethodLanguageModel Method = "language-model"
	// MethodDefault means the entry had no usable text and received the
	// default pair.
	MethodDefault Method = "default"
)

// Default pair for entries that cannot be categorized from their text.
const (
	DefaultCategory    = "misc"
	DefaultSubcategory = "misc"
)

// Assignment links an entry to one (category, subcategory) pair.
type Assignment struct {
	EntryKey    string
	Category    string
	Subcategory string
	// Score is the match strength: the number of intersecting terms for
	// term matches, 1 - divergence for language-model fallbacks.
	Score  float64
	Method Method
}

// Config controls classification.
type Config struct {
	// SingleBest limits each entry to its single highest-popularity match
	// instead of recording every intersecting category.
	SingleBest bool
	// FallbackDivergenceCutoff is the maximum Jensen-Shannon divergence
	// for a language-model fallback assignment; beyond it the entry
	// stays uncategorized.
	FallbackDivergenceCutoff float64
	// Smoothing for single-entry fallback models. Matches the builder's.
	Smoothing float64
}

// Classifier assigns entries to a frozen category tree.
//
// Categories are visited in descending popularity order, so when terms
// are ambiguous the most popular category absorbs the entry. That
// rich-get-richer bias is deliberate: it keeps big themes coherent
// instead of fragmenting them across near-duplicate categories.
type Classifier struct {
	tree category.Tree
	cfg  Config
}

// New creates a classifier over a frozen tree. The tree is not copied;
// it must not be mutated while the classifier is in use.
func New(tree category.Tree, cfg Config) *Classifier {
	if cfg.FallbackDivergenceCutoff <= 0 {
		cfg.FallbackDivergenceCutoff = 0.6
	}
	return &Classifier{tree: tree, cfg: cfg}
}

// Classify assigns one entry given its extracted normalized phrases.
// Re-running against the same tree and phrases yields identical results.
//
// An empty tree yields no assignments for any entry. An entry with no
// phrases against a non-empty tree receives the default pair.
func (c *Classifier) Classify(entryKey string, phrases []string) []Assignment {
	if c.tree.Empty() {
		return nil
	}
	if len(phrases) == 0 {
		return []Assignment{{
			EntryKey:    entryKey,
			Category:    DefaultCategory,
			Subcategory: DefaultSubcategory,
			Method:      MethodDefault,
		}}
	}

	phraseSet := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		phraseSet[p] = struct{}{}
	}

	var out []Assignment
	for _, cat := range c.tree.Categories {
		hits := intersectCount(cat.Terms, phraseSet)
		if hits == 0 {
			continue
		}
		out = append(out, Assignment{
			EntryKey:    entryKey,
			Category:    cat.Label,
			Subcategory: c.matchSubcategory(cat, phraseSet),
			Score:       float64(hits),
			Method:      MethodTermMatch,
		})
		if c.cfg.SingleBest {
			break
		}
	}

	if len(out) > 0 {
		return out
	}

	return c.fallback(entryKey, phrases)
}

// matchSubcategory returns the first (most popular) subcategory whose
// terms intersect the entry's phrases, or the default subcategory.
func (c *Classifier) matchSubcategory(cat category.Category, phraseSet map[string]struct{}) string {
	for _, sub := range cat.Subcategories {
		if intersectCount(sub.Terms, phraseSet) > 0 {
			return sub.Label
		}
	}
	return DefaultSubcategory
}

// fallback builds a single-entry language model and assigns the entry to
// the category with the lowest divergence, within the cutoff.
func (c *Classifier) fallback(entryKey string, phrases []string) []Assignment {
	counts := make(map[string]int64, len(phrases))
	for _, p := range phrases {
		counts[p]++
	}
	entryModel := category.NewModel(counts, c.cfg.Smoothing)

	best := -1
	bestDiv := category.MaxDivergence
	for i, cat := range c.tree.Categories {
		div := category.JensenShannon(entryModel, cat.Model)
		if div < bestDiv {
			best, bestDiv = i, div
		}
	}

	if best < 0 || bestDiv > c.cfg.FallbackDivergenceCutoff {
		return nil // uncategorized
	}

	return []Assignment{{
		EntryKey:    entryKey,
		Category:    c.tree.Categories[best].Label,
		Subcategory: DefaultSubcategory,
		Score:       1 - bestDiv,
		Method:      MethodLanguageModel,
	}}
}

func intersectCount(sorted []string, set map[string]struct{}) int {
	n := 0
	for _, t := range sorted {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}
