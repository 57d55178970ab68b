package ingest

import "strings"

// Phrase is a normalized noun phrase extracted from entry text.
type Phrase struct {
	Surface string // as written
	Norm    string // lowercased, depluralized, canonicalized
}

// Parser extracts noun phrases from raw entry text.
//
// The pipeline is: HTML stripping → part-of-speech tagging → chunk
// grammar (adjective/noun runs terminating in a noun) → per-word
// normalization → dictionary rewrites. Each chunk emits its full phrase,
// its word pairs, and its individual nouns, so both specific
// ("login error") and general ("error") terms are countable.
//
// Parse is one pass per call and restartable; empty or unparseable text
// produces an empty result, never an error.
type Parser struct {
	tagger    Tagger
	tokenizer *Tokenizer
	dict      *Dictionary
}

// NewParser creates a parser. A nil dictionary disables canonical rewrites.
func NewParser(tagger Tagger, tokenizer *Tokenizer, dict *Dictionary) *Parser {
	return &Parser{tagger: tagger, tokenizer: tokenizer, dict: dict}
}

// Parse extracts the noun phrases of one entry's text.
func (p *Parser) Parse(text string) []Phrase {
	text = StripHTML(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tagged := p.tagger.Tag(text)
	if len(tagged) == 0 {
		return nil
	}

	var phrases []Phrase
	for _, span := range chunks(tagged) {
		phrases = append(phrases, p.phrasesFromChunk(span)...)
	}
	return phrases
}

// phrasesFromChunk normalizes a chunk's words and emits the phrase forms.
func (p *Parser) phrasesFromChunk(span chunkSpan) []Phrase {
	type word struct {
		surface string
		norm    string
		noun    bool
	}

	words := make([]word, 0, len(span))
	for _, tok := range span {
		norm := p.normalizeWord(tok.Text)
		if norm == "" {
			continue
		}
		words = append(words, word{surface: tok.Text, norm: norm, noun: isNounTag(tok.Tag)})
	}
	if len(words) == 0 {
		return nil
	}

	norms := make([]string, len(words))
	for i, w := range words {
		norms[i] = w.norm
	}

	// Rewriting can collapse several words into one canonical token, so
	// the spans keep each rewritten token tied to the words it covers.
	var spans []RewriteSpan
	if p.dict != nil {
		spans = p.dict.RewriteSpans(norms)
	} else {
		spans = make([]RewriteSpan, len(words))
		for i, n := range norms {
			spans[i] = RewriteSpan{Norm: n, Start: i, End: i + 1}
		}
	}

	surface := func(s RewriteSpan) string {
		parts := make([]string, 0, s.End-s.Start)
		for _, w := range words[s.Start:s.End] {
			parts = append(parts, w.surface)
		}
		return strings.Join(parts, " ")
	}
	isNoun := func(s RewriteSpan) bool {
		for _, w := range words[s.Start:s.End] {
			if w.noun {
				return true
			}
		}
		return false
	}

	var out []Phrase

	// full phrase
	if len(spans) > 1 {
		parts := make([]string, len(spans))
		for i, s := range spans {
			parts[i] = s.Norm
		}
		surfaces := make([]string, 0, len(words))
		for _, w := range words {
			surfaces = append(surfaces, w.surface)
		}
		out = append(out, Phrase{
			Surface: strings.Join(surfaces, " "),
			Norm:    strings.Join(parts, " "),
		})
	}

	// adjacent word pairs within the chunk
	for i := 0; i+1 < len(spans); i++ {
		if len(spans) == 2 {
			break // identical to the full phrase
		}
		out = append(out, Phrase{
			Surface: surface(spans[i]) + " " + surface(spans[i+1]),
			Norm:    spans[i].Norm + " " + spans[i+1].Norm,
		})
	}

	// single nouns
	for _, s := range spans {
		if !isNoun(s) {
			continue
		}
		out = append(out, Phrase{Surface: surface(s), Norm: s.Norm})
	}

	return out
}

// normalizeWord runs one word through the tokenizer (case, punctuation,
// stopwords, numerics) and depluralizes the survivor.
func (p *Parser) normalizeWord(w string) string {
	toks := p.tokenizer.Tokenize(w)
	if len(toks) != 1 {
		return ""
	}
	return Depluralize(toks[0])
}

// Depluralize reduces regular English plural nouns to their singular
// form. It is intentionally conservative: irregular plurals pass through
// and short or s-final singulars ("bus", "less") are left alone.
func Depluralize(w string) string {
	if len(w) < 4 || !strings.HasSuffix(w, "s") {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ss") || strings.HasSuffix(w, "us") || strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") || strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	default:
		return w[:len(w)-1]
	}
}
