// Package vocab holds the controlled vocabulary used for aspect extraction:
// the aspect categories with their seed phrases and the two polarity
// lexicons.
//
// Aspects keep their registration order. When several aspects match at the
// same text position they are reported in that order.
package vocab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
)

// Polarity is the sentiment direction expressed toward an aspect.
type Polarity string

const (
	Positive Polarity = "POSITIVE"
	Negative Polarity = "NEGATIVE"
	Neutral  Polarity = "NEUTRAL"
)

// Aspect is a product-feature category and the phrases that signal it.
type Aspect struct {
	Name  string
	Terms []string
}

// Vocabulary maps aspect names to seed phrases and holds the positive and
// negative lemma sets.
type Vocabulary struct {
	aspects  []Aspect
	index    map[string]int // aspect name → position in aspects
	positive map[string]struct{}
	negative map[string]struct{}
}

// New creates an empty vocabulary.
func New() *Vocabulary {
	return &Vocabulary{
		index:    make(map[string]int),
		positive: make(map[string]struct{}),
		negative: make(map[string]struct{}),
	}
}

// Default returns the built-in vocabulary: seven phone-review aspects and
// the fixed polarity word lists.
func Default() *Vocabulary {
	v := New()
	v.AddAspect("camera", []string{"camera", "photo", "picture"})
	v.AddAspect("battery", []string{"battery", "charge", "charging"})
	v.AddAspect("performance", []string{"performance", "speed", "lag", "slow", "smooth"})
	v.AddAspect("display", []string{"screen", "display", "resolution"})
	v.AddAspect("sound", []string{"sound", "speaker", "audio"})
	v.AddAspect("design", []string{"design", "look", "build", "style"})
	v.AddAspect("price", []string{"price", "cost", "expensive", "cheap", "value"})
	v.AddPositive("good", "great", "excellent", "amazing", "awesome", "fantastic", "positive", "smooth")
	v.AddNegative("bad", "terrible", "poor", "awful", "slow", "negative", "laggy", "issue", "problem")
	return v
}

// AddAspect registers an aspect with its seed phrases. Re-registering an
// existing name replaces its phrases but keeps its original position.
func (v *Vocabulary) AddAspect(name string, terms []string) {
	name = strings.TrimSpace(name)
	normalized := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		normalized = append(normalized, term)
	}

	if i, ok := v.index[name]; ok {
		v.aspects[i].Terms = normalized
		return
	}
	v.index[name] = len(v.aspects)
	v.aspects = append(v.aspects, Aspect{Name: name, Terms: normalized})
}

// AddPositive adds lemmas to the positive lexicon.
func (v *Vocabulary) AddPositive(lemmas ...string) {
	addLemmas(v.positive, lemmas)
}

// AddNegative adds lemmas to the negative lexicon.
func (v *Vocabulary) AddNegative(lemmas ...string) {
	addLemmas(v.negative, lemmas)
}

func addLemmas(set map[string]struct{}, lemmas []string) {
	for _, l := range lemmas {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			set[l] = struct{}{}
		}
	}
}

// Aspects returns the registered aspects in registration order.
func (v *Vocabulary) Aspects() []Aspect {
	out := make([]Aspect, len(v.aspects))
	for i, a := range v.aspects {
		out[i] = Aspect{Name: a.Name, Terms: append([]string(nil), a.Terms...)}
	}
	return out
}

// AspectNames returns aspect names in registration order.
func (v *Vocabulary) AspectNames() []string {
	names := make([]string, len(v.aspects))
	for i, a := range v.aspects {
		names[i] = a.Name
	}
	return names
}

// IsPositive reports whether lemma belongs to the positive lexicon.
func (v *Vocabulary) IsPositive(lemma string) bool {
	_, ok := v.positive[lemma]
	return ok
}

// IsNegative reports whether lemma belongs to the negative lexicon.
func (v *Vocabulary) IsNegative(lemma string) bool {
	_, ok := v.negative[lemma]
	return ok
}

// PositiveLemmas returns the positive lexicon, sorted.
func (v *Vocabulary) PositiveLemmas() []string {
	return sortedKeys(v.positive)
}

// NegativeLemmas returns the negative lexicon, sorted.
func (v *Vocabulary) NegativeLemmas() []string {
	return sortedKeys(v.negative)
}

// Words returns every single word appearing in a seed phrase or a polarity
// lexicon. The lemmatizer uses it as its set of known base forms.
func (v *Vocabulary) Words() []string {
	words := make(map[string]struct{})
	for _, a := range v.aspects {
		for _, term := range a.Terms {
			for _, w := range strings.Fields(term) {
				words[w] = struct{}{}
			}
		}
	}
	for w := range v.positive {
		words[w] = struct{}{}
	}
	for w := range v.negative {
		words[w] = struct{}{}
	}
	return sortedKeys(words)
}

// Validate checks that the vocabulary can drive extraction.
func (v *Vocabulary) Validate() error {
	if len(v.aspects) == 0 {
		return fmt.Errorf("%w: vocabulary has no aspects", internalerr.ErrInvalidConfig)
	}
	for _, a := range v.aspects {
		if a.Name == "" {
			return fmt.Errorf("%w: aspect with empty name", internalerr.ErrInvalidConfig)
		}
		if len(a.Terms) == 0 {
			return fmt.Errorf("%w: aspect %q has no terms", internalerr.ErrInvalidConfig, a.Name)
		}
	}
	if len(v.positive) == 0 && len(v.negative) == 0 {
		return fmt.Errorf("%w: vocabulary has no polarity lemmas", internalerr.ErrInvalidConfig)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
