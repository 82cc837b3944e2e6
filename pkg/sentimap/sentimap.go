// Package sentimap is the analysis engine facade: it validates a review
// dataset, extracts per-aspect sentiment from every row and builds the
// summary tables.
package sentimap

import (
	"context"
	"fmt"

	"github.com/cognicore/sentimap/pkg/sentimap/aspect"
	"github.com/cognicore/sentimap/pkg/sentimap/dataset"
	"github.com/cognicore/sentimap/pkg/sentimap/ingest"
	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/lexicon"
	"github.com/cognicore/sentimap/pkg/sentimap/summary"
	"github.com/cognicore/sentimap/pkg/sentimap/vocab"
)

// DefaultExtractShare is the part of the progress range spent on row
// extraction; aggregation covers the rest.
const DefaultExtractShare = 0.8

// ProgressFunc receives a completion percentage in [0, 100].
type ProgressFunc func(percent int)

// Engine runs aspect-sentiment analysis over datasets. It is safe for
// concurrent use.
type Engine struct {
	vocab        *vocab.Vocabulary
	extractor    *aspect.Extractor
	extractShare float64
}

// Options configures an Engine.
type Options struct {
	// Vocabulary defaults to vocab.Default().
	Vocabulary *vocab.Vocabulary
	// Normalizer defaults to the English punkt pipeline with the built-in
	// lemma lexicon.
	Normalizer ingest.Normalizer
	// Workers bounds concurrent row extraction; 0 uses every CPU.
	Workers int
	// ExtractShare is clamped to (0, 1]; 0 selects DefaultExtractShare.
	ExtractShare float64
}

// New creates an Engine with the given dependencies.
func New(opts Options) (*Engine, error) {
	v := opts.Vocabulary
	if v == nil {
		v = vocab.Default()
	}

	n := opts.Normalizer
	if n == nil {
		lem := lexicon.NewLemmatizer(lexicon.English(), v.Words())
		p, err := ingest.NewEnglishPipeline(lem, nil)
		if err != nil {
			return nil, err
		}
		n = p
	}

	ex, err := aspect.NewExtractor(v, n, aspect.WithWorkers(opts.Workers))
	if err != nil {
		return nil, err
	}

	share := opts.ExtractShare
	if share <= 0 {
		share = DefaultExtractShare
	}
	if share > 1 {
		share = 1
	}

	return &Engine{vocab: v, extractor: ex, extractShare: share}, nil
}

// Vocabulary returns the vocabulary the engine matches against.
func (e *Engine) Vocabulary() *vocab.Vocabulary {
	return e.vocab
}

// Prepare validates ds and derives its Month and Age columns. Rejections
// wrap internalerr.ErrInvalidInput.
func (e *Engine) Prepare(ds *dataset.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: no dataset", internalerr.ErrInvalidInput)
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	ds.Prepare()
	return nil
}

// ExtractRow returns the aspect sentiments of one review.
func (e *Engine) ExtractRow(text string) aspect.Sentiments {
	return e.extractor.Extract(text)
}

// Analyze runs extraction and aggregation. progress may be nil. Any panic
// in the run is returned as an error; no partial result is produced.
func (e *Engine) Analyze(ctx context.Context, ds *dataset.Dataset, progress ProgressFunc) (result *summary.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	if err := e.Prepare(ds); err != nil {
		return nil, err
	}
	report := func(p int) {
		if progress != nil {
			progress(p)
		}
	}

	extractMax := int(e.extractShare * 100)
	sentiments, err := e.extractor.ExtractAll(ctx, ds.Reviews(), func(done, total int) {
		report(done * extractMax / total)
	})
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	annotated, err := summary.Annotate(ds, sentiments)
	if err != nil {
		return nil, err
	}
	result = annotated.Build()
	report(100)
	return result, nil
}
