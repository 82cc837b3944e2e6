package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cognicore/sentimap/internal/logging"
	"github.com/cognicore/sentimap/pkg/sentimap"
	"github.com/cognicore/sentimap/pkg/sentimap/config"
	"github.com/cognicore/sentimap/pkg/sentimap/dataset"
)

func main() {
	var (
		input     = flag.String("input", "", "Path to CSV or JSONL reviews (required)")
		output    = flag.String("output", "", "Write JSON result here instead of stdout")
		vocabPath = flag.String("vocabulary", "", "Vocabulary YAML (default: built-in)")
		lexPath   = flag.String("lexicon", "", "Extra lemma YAML merged over the built-in lexicon")
		segmenter = flag.String("segmenter", "punkt", "Sentence segmenter: punkt or simple")
		workers   = flag.Int("workers", 0, "Concurrent rows (0 = one per CPU)")
		showRows  = flag.Bool("rows", false, "Print per-row aspect sentiments instead of summaries")
		logLevel  = flag.String("log-level", "warn", "Log level")
		indent    = flag.Bool("pretty", true, "Indent JSON output")
	)
	flag.Parse()

	logging.Init(*logLevel)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "--input required")
		flag.Usage()
		os.Exit(2)
	}

	loader := config.Loader{
		VocabularyPath: *vocabPath,
		LexiconPath:    *lexPath,
		Segmenter:      *segmenter,
	}
	components, err := loader.Load()
	if err != nil {
		fatal("load configs", err)
	}

	engine, err := sentimap.New(sentimap.Options{
		Vocabulary: components.Vocabulary,
		Normalizer: components.Pipeline,
		Workers:    *workers,
	})
	if err != nil {
		fatal("build engine", err)
	}

	ds, err := dataset.ReadFile(*input)
	if err != nil {
		fatal("load reviews", err)
	}
	lex := components.Lexicon.Stats()
	slog.Info("[CLI] loaded reviews",
		slog.Int("rows", ds.Len()),
		slog.Int("aspects", len(components.Vocabulary.AspectNames())),
		slog.Int("lemma_groups", lex.Groups),
		slog.Int("lemma_forms", lex.TotalForms))

	var report any
	if *showRows {
		if err := engine.Prepare(ds); err != nil {
			fatal("validate reviews", err)
		}
		rows := make([]map[string]string, ds.Len())
		for i, r := range ds.Rows() {
			rows[i] = make(map[string]string)
			for aspect, polarity := range engine.ExtractRow(r.Review()) {
				rows[i][aspect] = string(polarity)
			}
		}
		report = rows
	} else {
		last := -1
		result, err := engine.Analyze(context.Background(), ds, func(p int) {
			if p/10 != last/10 {
				slog.Info("[CLI] progress", slog.Int("percent", p))
			}
			last = p
		})
		if err != nil {
			fatal("analyze", err)
		}
		report = result
	}

	var data []byte
	if *indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		fatal("encode result", err)
	}
	data = append(data, '\n')

	if *output == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		fatal("write output", err)
	}
	slog.Info("[CLI] wrote result", slog.String("path", *output), slog.Int("rows", ds.Len()))
}

func fatal(what string, err error) {
	slog.Error("[CLI] "+what+" failed", slog.Any("error", err))
	os.Exit(1)
}
