package lexicon

import "strings"

// suffixRules are tried in order. A rule only applies when the resulting
// base form is a known word, so unknown words pass through unchanged.
var suffixRules = []struct {
	suffix, repl string
}{
	{"ies", "y"},
	{"ves", "f"},
	{"ves", "fe"},
	{"sses", "ss"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"xes", "x"},
	{"zes", "z"},
	{"es", "e"},
	{"es", ""},
	{"s", ""},
	{"ied", "y"},
	{"ed", "e"},
	{"ed", ""},
	{"ying", "ie"},
	{"ing", "e"},
	{"ing", ""},
	{"iest", "y"},
	{"ier", "y"},
	{"est", "e"},
	{"est", ""},
	{"er", "e"},
	{"er", ""},
}

// minStem is the shortest stem a suffix rule may leave behind.
const minStem = 2

// Lemmatizer reduces English word forms to their dictionary base form.
//
// Lookup order: the lexicon (irregular and domain forms), then suffix rules
// validated against the known-word set, then the word itself.
type Lemmatizer struct {
	lex   *Lexicon
	known map[string]struct{}
}

// NewLemmatizer creates a lemmatizer. lex may be nil. known lists base forms
// the suffix rules are allowed to produce; lexicon lemmas are added to it.
func NewLemmatizer(lex *Lexicon, known []string) *Lemmatizer {
	l := &Lemmatizer{lex: lex, known: make(map[string]struct{}, len(known))}
	l.AddKnown(known...)
	if lex != nil {
		l.AddKnown(lex.Lemmas()...)
	}
	return l
}

// AddKnown registers base forms.
func (l *Lemmatizer) AddKnown(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			l.known[w] = struct{}{}
		}
	}
}

// Lemma returns the base form of a single lower-case word.
func (l *Lemmatizer) Lemma(word string) string {
	word = strings.ToLower(word)
	if word == "" {
		return ""
	}

	if l.lex != nil && l.lex.Has(word) {
		return l.lex.Normalize(word)
	}

	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) || len(word)-len(rule.suffix) < minStem {
			continue
		}
		stem := word[:len(word)-len(rule.suffix)]
		if base := stem + rule.repl; l.isKnown(base) {
			return base
		}
		// lagging → lagg → lag
		if rule.repl == "" && hasDoubledFinal(stem) {
			if base := stem[:len(stem)-1]; l.isKnown(base) {
				return base
			}
		}
	}

	return word
}

func (l *Lemmatizer) isKnown(w string) bool {
	_, ok := l.known[w]
	return ok
}

func hasDoubledFinal(s string) bool {
	n := len(s)
	if n < 3 {
		return false
	}
	c := s[n-1]
	return c == s[n-2] && !strings.ContainsRune("aeiou", rune(c))
}
