package aspect

import (
	"fmt"
	"strings"

	"github.com/cognicore/sentimap/pkg/sentimap/ingest"
	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/vocab"
)

// Match is one occurrence of a seed phrase in a document.
type Match struct {
	Aspect   string
	Sentence int // index into Document.Sentences
	Start    int // first token index within the sentence
	End      int // one past the last token index
}

// Matcher finds seed phrases in a normalized document by lemma sequence.
type Matcher struct {
	phrases map[string][]string // lemma phrase → aspects, registration order
	maxLen  int
}

// NewMatcher compiles the vocabulary's seed phrases. Each phrase is run
// through the normalizer so it is matched by lemma, the same way document
// text is.
func NewMatcher(v *vocab.Vocabulary, n ingest.Normalizer) (*Matcher, error) {
	m := &Matcher{phrases: make(map[string][]string), maxLen: 1}

	for _, a := range v.Aspects() {
		for _, term := range a.Terms {
			doc, err := n.SegmentAndLemmatize(term)
			if err != nil {
				return nil, fmt.Errorf("compile phrase %q: %w", term, err)
			}
			lemmas := documentLemmas(doc)
			if len(lemmas) == 0 {
				return nil, fmt.Errorf("%w: phrase %q of aspect %q has no tokens",
					internalerr.ErrInvalidConfig, term, a.Name)
			}
			m.add(strings.Join(lemmas, " "), a.Name)
			if len(lemmas) > m.maxLen {
				m.maxLen = len(lemmas)
			}
		}
	}

	return m, nil
}

func (m *Matcher) add(key, aspect string) {
	for _, existing := range m.phrases[key] {
		if existing == aspect {
			return
		}
	}
	m.phrases[key] = append(m.phrases[key], aspect)
}

func documentLemmas(doc ingest.Document) []string {
	var lemmas []string
	for _, s := range doc.Sentences {
		for _, tok := range s.Tokens {
			lemmas = append(lemmas, tok.Lemma)
		}
	}
	return lemmas
}

// Find returns every phrase occurrence in document order. Overlapping and
// repeated matches are all reported. At one position shorter phrases come
// first and aspects sharing a phrase follow registration order.
func (m *Matcher) Find(doc ingest.Document) []Match {
	var matches []Match

	for si, sent := range doc.Sentences {
		lemmas := make([]string, len(sent.Tokens))
		for i, tok := range sent.Tokens {
			lemmas[i] = tok.Lemma
		}

		for i := range lemmas {
			maxPhrase := m.maxLen
			if remaining := len(lemmas) - i; maxPhrase > remaining {
				maxPhrase = remaining
			}
			for n := 1; n <= maxPhrase; n++ {
				key := strings.Join(lemmas[i:i+n], " ")
				for _, aspect := range m.phrases[key] {
					matches = append(matches, Match{
						Aspect:   aspect,
						Sentence: si,
						Start:    i,
						End:      i + n,
					})
				}
			}
		}
	}

	return matches
}
