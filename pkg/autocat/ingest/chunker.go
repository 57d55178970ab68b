package ingest

import "strings"

// Chunk grammar: a noun phrase is a maximal run of adjectives and nouns
// that terminates in a noun. Runs are cut at anything else (verbs,
// determiners, punctuation). Trailing adjectives are trimmed so every
// emitted chunk is noun-headed.

func isNounTag(tag string) bool {
	switch tag {
	case "NN", "NNS", "NNP", "NNPS":
		return true
	}
	return false
}

func isAdjectiveTag(tag string) bool {
	switch tag {
	case "JJ", "JJR", "JJS":
		return true
	}
	return false
}

// chunkSpan is a candidate noun phrase as tag-annotated tokens.
type chunkSpan []TaggedToken

// chunks applies the grammar over a tagged token stream.
func chunks(tokens []TaggedToken) []chunkSpan {
	var spans []chunkSpan
	var run chunkSpan

	flush := func() {
		// trim non-noun tail so the chunk is noun-terminated
		end := len(run)
		for end > 0 && !isNounTag(run[end-1].Tag) {
			end--
		}
		if end > 0 {
			span := make(chunkSpan, end)
			copy(span, run[:end])
			spans = append(spans, span)
		}
		run = run[:0]
	}

	for _, tok := range tokens {
		if isNounTag(tok.Tag) || isAdjectiveTag(tok.Tag) {
			run = append(run, tok)
			continue
		}
		if len(run) > 0 {
			flush()
		}
	}
	if len(run) > 0 {
		flush()
	}

	return spans
}

// surface reassembles the span's words.
func (c chunkSpan) surface() string {
	words := make([]string, len(c))
	for i, tok := range c {
		words[i] = tok.Text
	}
	return strings.Join(words, " ")
}
