package ingest

import (
	prose "github.com/jdkato/prose/v2"
)

// TaggedToken is one word with its part-of-speech tag (Penn Treebank set).
type TaggedToken struct {
	Text string
	Tag  string
}

// Tagger assigns part-of-speech tags to raw text. The interface exists so
// chunking can be tested against fixed tag sequences.
type Tagger interface {
	Tag(text string) []TaggedToken
}

// ProseTagger tags text with the prose statistical tagger.
type ProseTagger struct{}

// NewProseTagger creates a prose-backed tagger.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag runs the tagger over the text. Unparseable input yields an empty
// sequence rather than an error; the parser contract is to fail softly.
func (p *ProseTagger) Tag(text string) []TaggedToken {
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil
	}

	toks := doc.Tokens()
	out := make([]TaggedToken, 0, len(toks))
	for _, tok := range toks {
		out = append(out, TaggedToken{Text: tok.Text, Tag: tok.Tag})
	}
	return out
}
