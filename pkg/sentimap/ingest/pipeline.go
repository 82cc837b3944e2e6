package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/lexicon"
)

// Pipeline orchestrates text normalization:
// markup stripping → NFKC → sentence segmentation → lower-case →
// tokenization → lemmatization
//
// Segmentation sees the original casing; the sentence models rely on it.
type Pipeline struct {
	segmenter  Segmenter
	tokenizer  *Tokenizer
	lemmatizer *lexicon.Lemmatizer
}

// NewPipeline creates a normalization pipeline with the given components.
// A nil lemmatizer leaves every lemma equal to its token.
func NewPipeline(segmenter Segmenter, tokenizer *Tokenizer, lemmatizer *lexicon.Lemmatizer) *Pipeline {
	if segmenter == nil {
		segmenter = SimpleSegmenter{}
	}
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	return &Pipeline{
		segmenter:  segmenter,
		tokenizer:  tokenizer,
		lemmatizer: lemmatizer,
	}
}

// NewEnglishPipeline builds a pipeline with the punkt sentence model.
func NewEnglishPipeline(lemmatizer *lexicon.Lemmatizer, stopwords []string) (*Pipeline, error) {
	seg, err := NewPunktSegmenter()
	if err != nil {
		return nil, err
	}
	return NewPipeline(seg, NewTokenizer(stopwords), lemmatizer), nil
}

// Normalize strips markup and applies NFKC. Casing is kept.
func Normalize(text string) string {
	return norm.NFKC.String(StripMarkup(text))
}

// SegmentAndLemmatize implements Normalizer. Document.Text is the
// lower-cased text and all offsets refer to it.
func (p *Pipeline) SegmentAndLemmatize(text string) (Document, error) {
	if !utf8.ValidString(text) {
		return Document{}, fmt.Errorf("%w: text is not valid UTF-8", internalerr.ErrInvalidInput)
	}

	normalized := Normalize(text)
	// Casers are stateful; one per call keeps the pipeline goroutine-safe.
	lower := cases.Lower(language.English)

	var (
		buf       strings.Builder
		sentences []Sentence
		cursor    int
	)
	for _, span := range p.segmenter.Segment(normalized) {
		buf.WriteString(lower.String(normalized[cursor:span.Start]))
		start := buf.Len()
		sentence := lower.String(normalized[span.Start:span.End])
		buf.WriteString(sentence)
		cursor = span.End

		tokens := p.tokenizer.Tokenize(sentence, start)
		for i := range tokens {
			tokens[i].Lemma = p.lemma(tokens[i].Text)
		}
		sentences = append(sentences, Sentence{
			Text:   sentence,
			Start:  start,
			End:    buf.Len(),
			Tokens: tokens,
		})
	}
	buf.WriteString(lower.String(normalized[cursor:]))

	return Document{Text: buf.String(), Sentences: sentences}, nil
}

func (p *Pipeline) lemma(word string) string {
	if p.lemmatizer == nil {
		return word
	}
	return p.lemmatizer.Lemma(word)
}
