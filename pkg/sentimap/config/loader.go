package config

import (
	"context"
	"fmt"

	"github.com/cognicore/sentimap/pkg/sentimap/ingest"
	"github.com/cognicore/sentimap/pkg/sentimap/lexicon"
	"github.com/cognicore/sentimap/pkg/sentimap/store"
	"github.com/cognicore/sentimap/pkg/sentimap/store/memstore"
	"github.com/cognicore/sentimap/pkg/sentimap/store/sqlite"
	"github.com/cognicore/sentimap/pkg/sentimap/store/valkeystore"
	"github.com/cognicore/sentimap/pkg/sentimap/vocab"
)

// Loader loads vocabulary and lexicon files and constructs the text
// components.
type Loader struct {
	VocabularyPath string
	LexiconPath    string
	// Segmenter is "punkt" (default) or "simple".
	Segmenter string
}

// Components holds the loaded analysis components.
type Components struct {
	Vocabulary *vocab.Vocabulary
	Lexicon    *lexicon.Lexicon
	Lemmatizer *lexicon.Lemmatizer
	Pipeline   *ingest.Pipeline
}

// NewLoader builds a Loader from the configuration paths.
func NewLoader(cfg Config) *Loader {
	return &Loader{
		VocabularyPath: cfg.VocabularyPath,
		LexiconPath:    cfg.LexiconPath,
		Segmenter:      cfg.Analysis.Segmenter,
	}
}

// Load reads all configured files and returns initialized components.
// Missing paths fall back to the built-in vocabulary and lexicon.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.VocabularyPath != "" {
		v, err := vocab.LoadYAML(l.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		comp.Vocabulary = v
	} else {
		comp.Vocabulary = vocab.Default()
	}

	comp.Lexicon = lexicon.English()
	if l.LexiconPath != "" {
		extra, err := lexicon.LoadFromYAML(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon.Merge(extra)
	}

	comp.Lemmatizer = lexicon.NewLemmatizer(comp.Lexicon, comp.Vocabulary.Words())

	switch l.Segmenter {
	case "simple":
		comp.Pipeline = ingest.NewPipeline(ingest.SimpleSegmenter{}, ingest.NewTokenizer(nil), comp.Lemmatizer)
	case "", "punkt":
		p, err := ingest.NewEnglishPipeline(comp.Lemmatizer, nil)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		comp.Pipeline = p
	default:
		return nil, fmt.Errorf("unknown segmenter %q", l.Segmenter)
	}

	return comp, nil
}

// OpenStore opens the job store selected by cfg.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Jobs.Store {
	case StoreSQLite:
		return sqlite.OpenSQLite(ctx, cfg.Jobs.SQLitePath)
	case StoreValkey:
		return valkeystore.Open(ctx, valkeystore.Options{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			TLS:       cfg.Valkey.TLS,
			KeyPrefix: cfg.Valkey.KeyPrefix,
			TTL:       cfg.Jobs.Retention,
		})
	default:
		return memstore.New(), nil
	}
}
