package category

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
	"github.com/cognicore/autocat/pkg/autocat/terms"
)

// Config controls category discovery.
type Config struct {
	// TopKSeedTerms is how many top-ranked terms seed initial categories.
	TopKSeedTerms int
	// OverlapMergeThreshold is the minimum Jaccard overlap (over member
	// terms plus co-occurring entry terms) for the term-overlap merge pass.
	OverlapMergeThreshold float64
	// EntropyMergeThreshold is the maximum Jensen-Shannon divergence for
	// the language-model merge pass.
	EntropyMergeThreshold float64
	// MergeCountCap bounds the number of merges in each pass.
	MergeCountCap int
	// Smoothing is the additive smoothing constant for language models.
	Smoothing float64
	// SeedExclude lists words that disqualify a term from seeding a
	// category (the term still participates in counting and models).
	SeedExclude []string
	// AttachWindow is how many ranked terms beyond the seeds are
	// considered for attachment as member terms and subcategories.
	// Zero means 4x TopKSeedTerms.
	AttachWindow int
}

// Validate rejects out-of-range settings before any work begins.
func (c Config) Validate() error {
	if c.TopKSeedTerms < 0 {
		return fmt.Errorf("%w: topKSeedTerms must be >= 0, got %d", internalerr.ErrInvalidConfig, c.TopKSeedTerms)
	}
	if c.OverlapMergeThreshold < 0 || c.OverlapMergeThreshold > 1 {
		return fmt.Errorf("%w: overlapMergeThreshold must be in [0,1], got %g", internalerr.ErrInvalidConfig, c.OverlapMergeThreshold)
	}
	if c.EntropyMergeThreshold < 0 || c.EntropyMergeThreshold > MaxDivergence {
		return fmt.Errorf("%w: entropyMergeThreshold must be in [0,%g], got %g", internalerr.ErrInvalidConfig, MaxDivergence, c.EntropyMergeThreshold)
	}
	if c.MergeCountCap < 0 {
		return fmt.Errorf("%w: mergeCountCap must be >= 0, got %d", internalerr.ErrInvalidConfig, c.MergeCountCap)
	}
	return nil
}

// Input carries the term statistics and the entry→terms index the
// builder needs. EntryTerms preserves duplicates: a phrase occurring
// twice in one entry counts twice in language models.
type Input struct {
	Stats      []terms.TermStat
	EntryTerms map[string][]string
}

// minTermLen filters noise terms out of seeding and language models.
const minTermLen = 3

// Build discovers the category tree in four passes: seed, term-overlap
// merge, language-model build, entropy merge. The merge passes are
// sequential by nature (each merge changes the candidate set) and check
// ctx between iterations; on cancellation no partial tree is returned.
//
// Zero input terms produce an empty tree, not an error.
func Build(ctx context.Context, in Input, cfg Config) (Tree, error) {
	if err := cfg.Validate(); err != nil {
		return Tree{}, err
	}
	if len(in.Stats) == 0 || cfg.TopKSeedTerms == 0 {
		return Tree{}, nil
	}

	b := &builder{
		cfg:         cfg,
		termScore:   make(map[string]float64, len(in.Stats)),
		termEntries: make(map[string][]string, len(in.Stats)),
		entryTerms:  in.EntryTerms,
	}
	for _, st := range in.Stats {
		b.termScore[st.Norm] = st.BoostedScore
		b.termEntries[st.Norm] = st.EntryKeys
	}

	b.seed(in.Stats)
	if len(b.cats) == 0 {
		return Tree{}, nil
	}

	if err := b.overlapMerge(ctx); err != nil {
		return Tree{}, err
	}

	b.buildModels()

	if err := b.entropyMerge(ctx); err != nil {
		return Tree{}, err
	}

	return b.freeze(), nil
}

type buildCat struct {
	label   string
	score   float64
	terms   map[string]struct{}
	entries map[string]struct{}
	model   Model
}

type builder struct {
	cfg         Config
	termScore   map[string]float64
	termEntries map[string][]string
	entryTerms  map[string][]string
	cats        []*buildCat
}

// seed creates a singleton category per top-ranked term, then attaches
// lower-ranked terms containing a seed label as member terms. If fewer
// eligible terms exist than requested, all of them seed.
func (b *builder) seed(stats []terms.TermStat) {
	exclude := make(map[string]struct{}, len(b.cfg.SeedExclude))
	for _, w := range b.cfg.SeedExclude {
		exclude[strings.ToLower(w)] = struct{}{}
	}

	excluded := func(norm string) bool {
		for _, w := range strings.Fields(norm) {
			if _, ok := exclude[w]; ok {
				return true
			}
		}
		return false
	}

	seeded := make(map[string]*buildCat)
	for _, st := range stats {
		if len(b.cats) >= b.cfg.TopKSeedTerms {
			break
		}
		if len(st.Norm) < minTermLen || excluded(st.Norm) {
			continue
		}
		c := &buildCat{
			label:   st.Norm,
			score:   st.BoostedScore,
			terms:   map[string]struct{}{st.Norm: {}},
			entries: make(map[string]struct{}),
		}
		for _, k := range st.EntryKeys {
			c.entries[k] = struct{}{}
		}
		b.cats = append(b.cats, c)
		seeded[st.Norm] = c
	}

	// Attach longer phrases to the seed they contain: "login error"
	// becomes a member (and later a subcategory) of "login".
	window := b.cfg.AttachWindow
	if window <= 0 {
		window = 4 * b.cfg.TopKSeedTerms
	}
	attached := 0
	for _, st := range stats {
		if attached >= window {
			break
		}
		attached++
		if _, isSeed := seeded[st.Norm]; isSeed {
			continue
		}
		if excluded(st.Norm) {
			continue
		}
		words := strings.Fields(st.Norm)
		for _, c := range b.cats {
			if !containsAllWords(words, strings.Fields(c.label)) {
				continue
			}
			c.terms[st.Norm] = struct{}{}
			c.score += st.BoostedScore
			for _, k := range st.EntryKeys {
				c.entries[k] = struct{}{}
			}
		}
	}
}

// containsAllWords reports whether every word of sub occurs in words.
func containsAllWords(words, sub []string) bool {
	for _, s := range sub {
		found := false
		for _, w := range words {
			if w == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// contextSet is the category's member terms plus all terms co-occurring
// in its entries.
func (b *builder) contextSet(c *buildCat) map[string]struct{} {
	set := make(map[string]struct{}, len(c.terms))
	for t := range c.terms {
		set[t] = struct{}{}
	}
	for key := range c.entries {
		for _, t := range b.entryTerms[key] {
			if len(t) >= minTermLen {
				set[t] = struct{}{}
			}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// overlapMerge repeatedly merges the category pair with the highest
// term-overlap score at or above the threshold. Ties go to the pair with
// the higher combined score, then the lexicographically smaller label
// pair, so the pass is fully deterministic.
func (b *builder) overlapMerge(ctx context.Context) error {
	for merges := 0; merges < b.cfg.MergeCountCap; merges++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(b.cats) < 2 {
			return nil
		}

		contexts := make([]map[string]struct{}, len(b.cats))
		for i, c := range b.cats {
			contexts[i] = b.contextSet(c)
		}

		bi, bj, bestScore := -1, -1, 0.0
		for i := 0; i < len(b.cats); i++ {
			for j := i + 1; j < len(b.cats); j++ {
				score := jaccard(contexts[i], contexts[j])
				if score < b.cfg.OverlapMergeThreshold {
					continue
				}
				if bi < 0 || score > bestScore ||
					(score == bestScore && b.preferPair(i, j, bi, bj)) {
					bi, bj, bestScore = i, j, score
				}
			}
		}
		if bi < 0 {
			return nil
		}
		b.merge(bi, bj)
	}
	return nil
}

// preferPair breaks score ties: the pair with higher combined aggregate
// score wins; equal again, the lexicographically smaller label pair.
func (b *builder) preferPair(i, j, bi, bj int) bool {
	sum := b.cats[i].score + b.cats[j].score
	bestSum := b.cats[bi].score + b.cats[bj].score
	if sum != bestSum {
		return sum > bestSum
	}
	return pairKey(b.cats[i].label, b.cats[j].label) < pairKey(b.cats[bi].label, b.cats[bj].label)
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// merge folds the pair at indexes i, j into one category. The label of
// the higher-scoring side survives (equal scores: the lexicographically
// smaller label).
func (b *builder) merge(i, j int) {
	survivor, absorbed := b.cats[i], b.cats[j]
	if absorbed.score > survivor.score ||
		(absorbed.score == survivor.score && absorbed.label < survivor.label) {
		survivor, absorbed = absorbed, survivor
	}

	for t := range absorbed.terms {
		survivor.terms[t] = struct{}{}
	}
	for k := range absorbed.entries {
		survivor.entries[k] = struct{}{}
	}
	survivor.score += absorbed.score

	out := b.cats[:0]
	for _, c := range b.cats {
		if c != absorbed {
			out = append(out, c)
		}
	}
	b.cats = out
}

// buildModels constructs each category's language model from the term
// occurrences of its associated entries.
func (b *builder) buildModels() {
	for _, c := range b.cats {
		c.model = b.modelForEntries(c.entries)
	}
}

func (b *builder) modelForEntries(entries map[string]struct{}) Model {
	counts := make(map[string]int64)
	for key := range entries {
		for _, t := range b.entryTerms[key] {
			if len(t) >= minTermLen {
				counts[t]++
			}
		}
	}
	return NewModel(counts, b.cfg.Smoothing)
}

// entropyMerge repeatedly merges the category pair with the lowest
// Jensen-Shannon divergence at or below the threshold, rebuilding the
// survivor's model after each merge. Same cap-and-stop policy as the
// overlap pass. A singleton category with no co-occurring entries keeps
// maximum divergence from everything and never merges.
func (b *builder) entropyMerge(ctx context.Context) error {
	for merges := 0; merges < b.cfg.MergeCountCap; merges++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(b.cats) < 2 {
			return nil
		}

		bi, bj := -1, -1
		bestDiv := MaxDivergence
		for i := 0; i < len(b.cats); i++ {
			for j := i + 1; j < len(b.cats); j++ {
				div := JensenShannon(b.cats[i].model, b.cats[j].model)
				if div > b.cfg.EntropyMergeThreshold {
					continue
				}
				if bi < 0 || div < bestDiv ||
					(div == bestDiv && b.preferPair(i, j, bi, bj)) {
					bi, bj, bestDiv = i, j, div
				}
			}
		}
		if bi < 0 {
			return nil
		}
		b.merge(bi, bj)
		b.rebuildMergedModel()
	}
	return nil
}

// rebuildMergedModel refreshes models so subsequent divergence
// comparisons see the post-merge distributions.
func (b *builder) rebuildMergedModel() {
	for _, c := range b.cats {
		c.model = b.modelForEntries(c.entries)
	}
}

// freeze materializes the immutable tree: member terms sorted,
// multi-word member terms become subcategories, categories ordered by
// aggregate popularity.
func (b *builder) freeze() Tree {
	cats := make([]Category, 0, len(b.cats))
	for _, c := range b.cats {
		memberTerms := make([]string, 0, len(c.terms))
		for t := range c.terms {
			memberTerms = append(memberTerms, t)
		}
		sort.Strings(memberTerms)

		score := 0.0
		for _, t := range memberTerms {
			score += b.termScore[t]
		}

		cat := Category{
			Label: c.label,
			Terms: memberTerms,
			Score: score,
			Model: c.model,
		}

		for _, t := range memberTerms {
			if t == c.label || !strings.Contains(t, " ") {
				continue
			}
			subEntries := make(map[string]struct{})
			for _, k := range b.termEntries[t] {
				if _, ok := c.entries[k]; ok {
					subEntries[k] = struct{}{}
				}
			}
			sub := Category{
				Label: t,
				Terms: subTerms(t),
				Score: b.termScore[t],
				Model: b.modelForEntries(subEntries),
			}
			cat.Subcategories = append(cat.Subcategories, sub)
		}
		sortCategories(cat.Subcategories)

		cats = append(cats, cat)
	}

	sortCategories(cats)
	return Tree{Categories: cats}
}

// subTerms is the phrase itself plus its distinct words, sorted.
func subTerms(phrase string) []string {
	set := map[string]struct{}{phrase: {}}
	for _, w := range strings.Fields(phrase) {
		set[w] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
