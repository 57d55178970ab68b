package classify

import (
	"reflect"
	"testing"

	"github.com/cognicore/autocat/pkg/autocat/category"
)

// testTree builds a two-category tree, "login" more popular than
// "checkout", with one subcategory under login.
func testTree() category.Tree {
	return category.Tree{Categories: []category.Category{
		{
			Label: "login",
			Terms: []string{"login", "login error", "signin"},
			Score: 20,
			Model: category.NewModel(map[string]int64{"login": 5, "signin": 2, "error": 2}, 0.5),
			Subcategories: []category.Category{
				{
					Label: "login error",
					Terms: []string{"error", "login", "login error"},
					Score: 8,
				},
			},
		},
		{
			Label: "checkout",
			Terms: []string{"checkout", "payment"},
			Score: 10,
			Model: category.NewModel(map[string]int64{"checkout": 4, "payment": 3}, 0.5),
		},
	}}
}

func TestClassifyTermIntersection(t *testing.T) {
	c := New(testTree(), Config{})

	got := c.Classify("e1", []string{"login error", "login", "error"})
	if len(got) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(got))
	}

	a := got[0]
	if a.Category != "login" || a.Subcategory != "login error" {
		t.Errorf("Assignment = %s/%s, want login/login error", a.Category, a.Subcategory)
	}
	if a.Method != MethodTermMatch {
		t.Errorf("Method = %s, want %s", a.Method, MethodTermMatch)
	}
	if a.Score != 2 {
		t.Errorf("Score = %g, want 2 intersecting terms", a.Score)
	}
}

func TestClassifyMultipleCategories(t *testing.T) {
	c := New(testTree(), Config{})

	got := c.Classify("e1", []string{"login", "checkout"})
	if len(got) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(got))
	}
	// tree order: popular category first
	if got[0].Category != "login" || got[1].Category != "checkout" {
		t.Errorf("Order = %s, %s; want login, checkout", got[0].Category, got[1].Category)
	}
	if got[0].Subcategory != DefaultSubcategory {
		t.Errorf("No subcategory terms matched, want %q, got %q", DefaultSubcategory, got[0].Subcategory)
	}
}

func TestClassifySingleBest(t *testing.T) {
	c := New(testTree(), Config{SingleBest: true})

	got := c.Classify("e1", []string{"login", "checkout"})
	if len(got) != 1 || got[0].Category != "login" {
		t.Errorf("SingleBest should keep only the most popular match, got %v", got)
	}
}

func TestClassifyRichGetRicher(t *testing.T) {
	// an ambiguous term in both categories lands in the more popular one
	tree := category.Tree{Categories: []category.Category{
		{Label: "login", Terms: []string{"login", "timeout"}, Score: 20},
		{Label: "network", Terms: []string{"network", "timeout"}, Score: 5},
	}}
	c := New(tree, Config{SingleBest: true})

	got := c.Classify("e1", []string{"timeout"})
	if len(got) != 1 || got[0].Category != "login" {
		t.Errorf("Ambiguous term should go to the popular category, got %v", got)
	}
}

func TestClassifyEmptyTree(t *testing.T) {
	c := New(category.Tree{}, Config{})

	if got := c.Classify("e1", []string{"login"}); got != nil {
		t.Errorf("Empty tree should yield no assignments, got %v", got)
	}
	if got := c.Classify("e1", nil); got != nil {
		t.Errorf("Empty tree and no phrases should still yield nil, got %v", got)
	}
}

func TestClassifyNoPhrasesDefaultPair(t *testing.T) {
	c := New(testTree(), Config{})

	got := c.Classify("e1", nil)
	if len(got) != 1 {
		t.Fatalf("Expected the default assignment, got %d", len(got))
	}
	a := got[0]
	if a.Category != DefaultCategory || a.Subcategory != DefaultSubcategory || a.Method != MethodDefault {
		t.Errorf("Default assignment = %+v", a)
	}
}

func TestClassifyLanguageModelFallback(t *testing.T) {
	c := New(testTree(), Config{})

	// no term intersection, but vocabulary close to the login model
	got := c.Classify("e1", []string{"error", "error", "signin problem"})
	if len(got) != 1 {
		t.Fatalf("Expected a fallback assignment, got %d", len(got))
	}
	a := got[0]
	if a.Method != MethodLanguageModel {
		t.Fatalf("Method = %s, want %s", a.Method, MethodLanguageModel)
	}
	if a.Category != "login" {
		t.Errorf("Fallback category = %s, want login", a.Category)
	}
	if a.Score <= 0 || a.Score > 1 {
		t.Errorf("Fallback score = %g, want in (0, 1]", a.Score)
	}
}

func TestClassifyFallbackCutoff(t *testing.T) {
	c := New(testTree(), Config{FallbackDivergenceCutoff: 0.01})

	// vocabulary unrelated to every category model: stays uncategorized
	got := c.Classify("e1", []string{"weather", "sunshine"})
	if got != nil {
		t.Errorf("Beyond the cutoff the entry must stay uncategorized, got %v", got)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := New(testTree(), Config{})

	phrases := []string{"login", "checkout", "payment"}
	first := c.Classify("e1", phrases)
	for i := 0; i < 5; i++ {
		if again := c.Classify("e1", phrases); !reflect.DeepEqual(first, again) {
			t.Fatal("Classify must be idempotent")
		}
	}
}
