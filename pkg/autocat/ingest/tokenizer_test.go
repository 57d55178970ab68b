package ingest

import (
	"strings"
	"testing"
)

func TestTokenizerBasic(t *testing.T) {
	stopwords := []string{"the", "a", "and", "of", "is"}
	tokenizer := NewTokenizer(stopwords)

	text := "The login page is broken and the error persists"
	tokens := tokenizer.Tokenize(text)

	for _, tok := range tokens {
		if tok == "the" || tok == "is" {
			t.Errorf("Stopword %q should be filtered", tok)
		}
	}

	expected := []string{"login", "page", "broken", "error", "persists"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, want := range expected {
		if tokens[i] != want {
			t.Errorf("Token %d: expected %q, got %q", i, want, tokens[i])
		}
	}
}

func TestTokenizerCaseNormalization(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("LOGIN Error PaGe")
	for _, tok := range tokens {
		if tok != strings.ToLower(tok) {
			t.Errorf("Token %s should be lowercased", tok)
		}
	}
}

func TestTokenizerHyphens(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("drop-down menu --broken- sign--in")

	want := map[string]bool{"drop-down": true, "sign-in": true}
	found := 0
	for _, tok := range tokens {
		if want[tok] {
			found++
		}
		if strings.HasPrefix(tok, "-") || strings.HasSuffix(tok, "-") {
			t.Errorf("Token %q has dangling hyphen", tok)
		}
		if strings.Contains(tok, "--") {
			t.Errorf("Token %q has consecutive hyphens", tok)
		}
	}
	if found != 2 {
		t.Errorf("Expected hyphenated tokens preserved, got %v", tokens)
	}
}

func TestTokenizerNumericFiltering(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("error 404 on ie11 since 2024")

	for _, tok := range tokens {
		if tok == "404" || tok == "2024" {
			t.Errorf("Pure-numeric token %q should be dropped", tok)
		}
	}

	hasMixed := false
	for _, tok := range tokens {
		if tok == "ie11" {
			hasMixed = true
		}
	}
	if !hasMixed {
		t.Errorf("Mixed alphanumeric token should survive, got %v", tokens)
	}
}

func TestTokenizerSingleCharDropped(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("I a x failed")
	if len(tokens) != 1 || tokens[0] != "failed" {
		t.Errorf("Single-character tokens should be dropped, got %v", tokens)
	}
}

func TestTokenizerDictionaryNormalization(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	tokenizer.SetDictionary(DefaultDictionary())

	tokens := tokenizer.Tokenize("the webpage and the website")

	for _, tok := range tokens {
		if tok == "webpage" || tok == "website" {
			t.Errorf("Token %q should be rewritten to canonical form", tok)
		}
	}

	sites := 0
	for _, tok := range tokens {
		if tok == "site" {
			sites++
		}
	}
	if sites != 2 {
		t.Errorf("Expected both variants rewritten to 'site', got %v", tokens)
	}
}

func TestTokenizerStopwordManagement(t *testing.T) {
	tokenizer := NewTokenizer([]string{"page"})

	tokenizer.AddStopword("Login")
	tokens := tokenizer.Tokenize("login page error")
	if len(tokens) != 1 || tokens[0] != "error" {
		t.Errorf("Expected only 'error' after stopword additions, got %v", tokens)
	}

	tokenizer.RemoveStopword("login")
	tokens = tokenizer.Tokenize("login page error")
	if len(tokens) != 2 {
		t.Errorf("Expected 'login' back after removal, got %v", tokens)
	}
}
