package aspect

import "github.com/cognicore/sentimap/pkg/sentimap/vocab"

// Resolver decides the polarity of a sentence from its lemma set.
type Resolver struct {
	vocab *vocab.Vocabulary
}

// NewResolver creates a resolver over the vocabulary's polarity lexicons.
func NewResolver(v *vocab.Vocabulary) Resolver {
	return Resolver{vocab: v}
}

// Resolve returns Negative if any lemma is negative, otherwise Positive if
// any lemma is positive, otherwise Neutral. Negative wins when both occur.
func (r Resolver) Resolve(lemmas map[string]struct{}) vocab.Polarity {
	polarity := vocab.Neutral
	for l := range lemmas {
		if r.vocab.IsPositive(l) {
			polarity = vocab.Positive
			break
		}
	}
	for l := range lemmas {
		if r.vocab.IsNegative(l) {
			return vocab.Negative
		}
	}
	return polarity
}
