package ingest

// Token is one word of a normalized document. Start and End are byte
// offsets into Document.Text.
type Token struct {
	Text  string
	Lemma string
	Start int
	End   int
}

// Sentence is a contiguous span of the normalized document with its tokens.
type Sentence struct {
	Text   string
	Start  int
	End    int
	Tokens []Token
}

// Lemmas returns the set of token lemmas in the sentence.
func (s Sentence) Lemmas() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Tokens))
	for _, tok := range s.Tokens {
		if tok.Lemma != "" {
			set[tok.Lemma] = struct{}{}
		}
	}
	return set
}

// Document is the result of normalizing one review text.
type Document struct {
	Text      string // lower-cased, markup-free text the offsets refer to
	Sentences []Sentence
}

// TokenCount returns the number of tokens across all sentences.
func (d Document) TokenCount() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens)
	}
	return n
}

// Normalizer lower-cases text, segments it into sentences, tokenizes each
// sentence and assigns lemmas. Implementations must be safe for concurrent
// use.
type Normalizer interface {
	SegmentAndLemmatize(text string) (Document, error)
}
