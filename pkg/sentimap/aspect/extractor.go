// Package aspect extracts per-aspect sentiment from review text.
//
// A review is normalized into lemmatized sentences, seed phrases are located
// with a Matcher, and each match takes the polarity of its enclosing
// sentence. Neutral sentences contribute nothing. When an aspect is
// mentioned several times, the last non-neutral mention in document order
// wins.
package aspect

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cognicore/sentimap/pkg/sentimap/ingest"
	"github.com/cognicore/sentimap/pkg/sentimap/vocab"
)

// Sentiments maps aspect names to the polarity expressed toward them.
// Neutral is never stored.
type Sentiments map[string]vocab.Polarity

// ProgressFunc receives the number of finished rows after each row.
type ProgressFunc func(done, total int)

// Extractor runs Matcher and Resolver over review rows.
type Extractor struct {
	normalizer ingest.Normalizer
	matcher    *Matcher
	resolver   Resolver
	workers    int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWorkers bounds the number of rows processed concurrently by
// ExtractAll. Values below 1 select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		e.workers = n
	}
}

// NewExtractor compiles the vocabulary against the normalizer.
func NewExtractor(v *vocab.Vocabulary, n ingest.Normalizer, opts ...Option) (*Extractor, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	m, err := NewMatcher(v, n)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		normalizer: n,
		matcher:    m,
		resolver:   NewResolver(v),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}
	return e, nil
}

// Extract returns the aspect sentiments of one review. It never fails:
// text that cannot be normalized yields an empty map.
func (e *Extractor) Extract(text string) (result Sentiments) {
	result = Sentiments{}
	defer func() {
		if r := recover(); r != nil {
			result = Sentiments{}
		}
	}()

	doc, err := e.normalizer.SegmentAndLemmatize(text)
	if err != nil {
		return result
	}

	lemmaSets := make(map[int]map[string]struct{})
	for _, m := range e.matcher.Find(doc) {
		lemmas, ok := lemmaSets[m.Sentence]
		if !ok {
			lemmas = doc.Sentences[m.Sentence].Lemmas()
			lemmaSets[m.Sentence] = lemmas
		}
		if polarity := e.resolver.Resolve(lemmas); polarity != vocab.Neutral {
			result[m.Aspect] = polarity
		}
	}
	return result
}

// ExtractAll extracts every text using a bounded worker pool. Results keep
// input order. progress, when non-nil, is called with strictly increasing
// done counts, never concurrently, and last with done == total on success.
// Counts finished while a call is running are folded into the next call.
// The only error is ctx cancellation.
func (e *Extractor) ExtractAll(ctx context.Context, texts []string, progress ProgressFunc) ([]Sentiments, error) {
	results := make([]Sentiments, len(texts))
	total := len(texts)

	var (
		done     atomic.Int64
		reportMu sync.Mutex
		reported int64
	)
	report := func() {
		done.Add(1)
		if progress == nil {
			return
		}
		// Workers never wait on a slow sink: whoever holds reportMu drains
		// the latest count before letting go.
		for reportMu.TryLock() {
			n := done.Load()
			if n > reported {
				reported = n
				progress(int(n), total)
			}
			reportMu.Unlock()
			if done.Load() == reported {
				return
			}
		}
	}

	workers := e.workers
	if workers > total {
		workers = total
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = e.Extract(texts[i])
				report()
			}
		}()
	}

	var err error
feed:
	for i := range texts {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}
