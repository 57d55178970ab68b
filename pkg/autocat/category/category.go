package category

import "sort"

// Category is one node of the discovered category tree. The tree is
// strictly owned top-down: a parent holds its subcategories by value and
// no node references its parent, so the structure serializes trivially
// and can never cycle.
type Category struct {
	Label string
	Terms []string // member terms, sorted
	Score float64  // aggregate popularity: sum of member boosted scores

	Model Model // language model over associated entry terms

	Subcategories []Category
}

// Tree is the frozen result of category discovery, ordered by Score
// descending (ties by label) so classification visits popular categories
// first.
type Tree struct {
	Categories []Category
}

// Empty reports whether discovery produced no categories.
func (t Tree) Empty() bool {
	return len(t.Categories) == 0
}

// Labels returns the top-level category labels in tree order.
func (t Tree) Labels() []string {
	labels := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		labels[i] = c.Label
	}
	return labels
}

// HasTerm reports whether term is a member of the category.
func (c Category) HasTerm(term string) bool {
	i := sort.SearchStrings(c.Terms, term)
	return i < len(c.Terms) && c.Terms[i] == term
}

func sortCategories(cats []Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Score != cats[j].Score {
			return cats[i].Score > cats[j].Score
		}
		return cats[i].Label < cats[j].Label
	})
}
