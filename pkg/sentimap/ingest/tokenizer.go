package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits sentence text into word tokens with byte offsets.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list.
// Aspect matching normally runs without stopwords.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize splits text into lower-cased tokens. base is added to every
// offset so tokens can refer to an enclosing document.
func (t *Tokenizer) Tokenize(text string, base int) []Token {
	var tokens []Token
	start := -1

	emit := func(end int) {
		if start < 0 {
			return
		}
		raw := text[start:end]
		word, lead := t.cleanToken(raw)
		if word != "" {
			s := base + start + lead
			tokens = append(tokens, Token{Text: word, Start: s, End: s + len(word)})
		}
		start = -1
	}

	var prev rune
	for i, r := range text {
		switch {
		case r == '-' && unicode.IsLetter(prev) && letterAt(text, i+1):
			// Infix hyphen: "well-designed" is two words.
			emit(i)
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-':
			if start < 0 {
				start = i
			}
		default:
			emit(i)
		}
		prev = r
	}
	emit(len(text))

	for i := range tokens {
		tokens[i].Text = strings.ToLower(tokens[i].Text)
	}
	return t.filter(tokens)
}

// cleanToken strips leading/trailing hyphens and returns the cleaned word
// with the number of bytes removed from its front.
func (t *Tokenizer) cleanToken(token string) (string, int) {
	trimmed := strings.TrimLeft(token, "-")
	lead := len(token) - len(trimmed)
	trimmed = strings.TrimRight(trimmed, "-")

	if utf8.RuneCountInString(trimmed) <= 1 {
		return "", 0
	}
	// Pure-numeric tokens carry no aspect signal.
	if isNumericOnly(trimmed) {
		return "", 0
	}
	return trimmed, lead
}

func (t *Tokenizer) filter(tokens []Token) []Token {
	if len(t.stopwords) == 0 {
		return tokens
	}
	out := tokens[:0]
	for _, tok := range tokens {
		if _, stop := t.stopwords[tok.Text]; !stop {
			out = append(out, tok)
		}
	}
	return out
}

func letterAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r)
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
