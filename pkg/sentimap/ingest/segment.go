package ingest

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// Span is a sentence boundary pair of byte offsets.
type Span struct {
	Start int
	End   int
}

// Segmenter splits text into sentence spans.
type Segmenter interface {
	Segment(text string) []Span
}

// PunktSegmenter segments English text with the punkt model shipped with
// the sentences package.
type PunktSegmenter struct {
	mu        sync.Mutex
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSegmenter loads the English punkt model.
func NewPunktSegmenter() (*PunktSegmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &PunktSegmenter{tokenizer: tok}, nil
}

// Segment implements Segmenter.
func (p *PunktSegmenter) Segment(text string) []Span {
	p.mu.Lock()
	sents := p.tokenizer.Tokenize(text)
	p.mu.Unlock()

	var spans []Span
	cursor := 0
	for _, s := range sents {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed == "" {
			continue
		}
		idx := strings.Index(text[cursor:], trimmed)
		if idx < 0 {
			// The model rewrote the sentence; keep the remainder as one span.
			if rest := trimSpan(text, cursor, len(text)); rest.End > rest.Start {
				spans = append(spans, splitAfterPeriods(text, rest)...)
			}
			return spans
		}
		start := cursor + idx
		end := start + len(trimmed)
		spans = append(spans, splitAfterPeriods(text, Span{Start: start, End: end})...)
		cursor = end
	}
	return spans
}

// abbreviations keep their sentence going after the period.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {},
	"jr": {}, "sr": {}, "vs": {}, "approx": {}, "inc": {}, "ltd": {},
}

// sentenceFinal lists review words the punkt model reads as abbreviations
// although they end a sentence.
var sentenceFinal = map[string]struct{}{
	"ok": {}, "okay": {}, "lol": {}, "tho": {}, "btw": {},
}

// splitAfterPeriods breaks sp at ". " boundaries punkt joined: before an
// upper-case letter, or after a sentence-final word. Known abbreviations,
// initials and dotted forms such as "e.g." never split.
func splitAfterPeriods(text string, sp Span) []Span {
	var spans []Span
	start := sp.Start
	for i := sp.Start; i < sp.End-1; i++ {
		if text[i] != '.' || !isSpaceByte(text[i+1]) {
			continue
		}
		next := i + 1
		for next < sp.End && isSpaceByte(text[next]) {
			next++
		}
		if next == sp.End {
			break
		}

		word := wordBefore(text, sp.Start, i)
		lw := strings.ToLower(word)
		if _, ok := abbreviations[lw]; ok || strings.Contains(word, ".") || utf8.RuneCountInString(word) == 1 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[next:])
		_, final := sentenceFinal[lw]
		if !unicode.IsUpper(r) && !final {
			continue
		}

		if piece := trimSpan(text, start, i+1); piece.End > piece.Start {
			spans = append(spans, piece)
		}
		start = next
	}
	if piece := trimSpan(text, start, sp.End); piece.End > piece.Start {
		spans = append(spans, piece)
	}
	return spans
}

// wordBefore returns the run of letters and dots ending at the period at i.
func wordBefore(text string, floor, i int) string {
	j := i
	for j > floor {
		r, size := utf8.DecodeLastRuneInString(text[floor:j])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		j -= size
	}
	return text[j:i]
}

// SimpleSegmenter splits on runs of '.', '!', '?' and on newlines. It needs
// no model and is deterministic, which makes it useful in tests.
type SimpleSegmenter struct{}

// Segment implements Segmenter.
func (SimpleSegmenter) Segment(text string) []Span {
	var spans []Span
	start := 0
	inTerminator := false

	flush := func(end int) {
		if sp := trimSpan(text, start, end); sp.End > sp.Start {
			spans = append(spans, sp)
		}
		start = end
	}

	for i, r := range text {
		switch {
		case r == '\n':
			flush(i)
			inTerminator = false
		case r == '.' || r == '!' || r == '?':
			inTerminator = true
		case inTerminator:
			if unicode.IsSpace(r) {
				flush(i)
			}
			inTerminator = false
		}
	}
	flush(len(text))
	return spans
}

func trimSpan(text string, start, end int) Span {
	for start < end && isSpaceByte(text[start]) {
		start++
	}
	for end > start && isSpaceByte(text[end-1]) {
		end--
	}
	return Span{Start: start, End: end}
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
