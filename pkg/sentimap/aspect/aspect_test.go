package aspect

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cognicore/sentimap/pkg/sentimap/ingest"
	"github.com/cognicore/sentimap/pkg/sentimap/lexicon"
	"github.com/cognicore/sentimap/pkg/sentimap/vocab"
)

func newPipeline(v *vocab.Vocabulary) *ingest.Pipeline {
	lem := lexicon.NewLemmatizer(lexicon.English(), v.Words())
	return ingest.NewPipeline(ingest.SimpleSegmenter{}, ingest.NewTokenizer(nil), lem)
}

func newExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	v := vocab.Default()
	e, err := NewExtractor(v, newPipeline(v), opts...)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

// whitespaceNormalizer lower-cases and splits on whitespace; every line is
// a sentence and every word is its own lemma.
type whitespaceNormalizer struct {
	panicOn string
	failOn  string
}

func (n whitespaceNormalizer) SegmentAndLemmatize(text string) (ingest.Document, error) {
	if n.panicOn != "" && text == n.panicOn {
		panic("normalizer exploded")
	}
	if n.failOn != "" && text == n.failOn {
		return ingest.Document{}, errors.New("unreadable")
	}
	text = strings.ToLower(text)
	doc := ingest.Document{Text: text}
	for _, line := range strings.Split(text, "\n") {
		var sent ingest.Sentence
		for _, w := range strings.Fields(line) {
			sent.Tokens = append(sent.Tokens, ingest.Token{Text: w, Lemma: w})
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc, nil
}

func TestResolveNegativeOverridesPositive(t *testing.T) {
	r := NewResolver(vocab.Default())

	tests := []struct {
		name   string
		lemmas []string
		want   vocab.Polarity
	}{
		{"positive only", []string{"camera", "be", "great"}, vocab.Positive},
		{"negative only", []string{"battery", "be", "bad"}, vocab.Negative},
		{"both", []string{"good", "but", "slow"}, vocab.Negative},
		{"neither", []string{"the", "screen"}, vocab.Neutral},
		{"empty", nil, vocab.Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := make(map[string]struct{})
			for _, l := range tt.lemmas {
				set[l] = struct{}{}
			}
			if got := r.Resolve(set); got != tt.want {
				t.Errorf("Resolve(%v) = %s, want %s", tt.lemmas, got, tt.want)
			}
		})
	}
}

func TestMatcherLemmaMatching(t *testing.T) {
	v := vocab.Default()
	p := newPipeline(v)
	m, err := NewMatcher(v, p)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	for _, text := range []string{"fast charging", "quick charge", "it charges fast"} {
		doc, _ := p.SegmentAndLemmatize(text)
		matches := m.Find(doc)
		if len(matches) != 1 || matches[0].Aspect != "battery" {
			t.Errorf("%q: expected one battery match, got %+v", text, matches)
		}
	}
}

func TestMatcherMultiWordAndOverlap(t *testing.T) {
	v := vocab.New()
	v.AddAspect("battery", []string{"battery", "battery life"})
	v.AddAspect("value", []string{"battery"})
	v.AddPositive("good")

	m, err := NewMatcher(v, whitespaceNormalizer{})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if len(m.phrases) != 2 {
		t.Errorf("Expected 2 phrases, got %d", len(m.phrases))
	}

	doc, _ := whitespaceNormalizer{}.SegmentAndLemmatize("good battery life")
	matches := m.Find(doc)

	want := []Match{
		{Aspect: "battery", Sentence: 0, Start: 1, End: 2},
		{Aspect: "value", Sentence: 0, Start: 1, End: 2},
		{Aspect: "battery", Sentence: 0, Start: 1, End: 3},
	}
	if !reflect.DeepEqual(matches, want) {
		t.Errorf("got %+v, want %+v", matches, want)
	}
}

func TestMatcherRejectsEmptyPhrase(t *testing.T) {
	v := vocab.New()
	v.AddAspect("camera", []string{"!!"})
	v.AddPositive("good")

	if _, err := NewMatcher(v, newPipeline(v)); err == nil {
		t.Error("phrase without tokens should be rejected")
	}
}

func TestExtractSameSentenceNegativeOverride(t *testing.T) {
	e := newExtractor(t)

	got := e.Extract("The camera is great but battery is bad")
	want := Sentiments{"camera": vocab.Negative, "battery": vocab.Negative}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractSentenceScoped(t *testing.T) {
	e := newExtractor(t)

	got := e.Extract("Great camera. Battery is bad.")
	want := Sentiments{"camera": vocab.Positive, "battery": vocab.Negative}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractLastMentionWins(t *testing.T) {
	e := newExtractor(t)

	tests := []struct {
		text string
		want vocab.Polarity
	}{
		{"The camera is great. The camera is terrible.", vocab.Negative},
		{"The camera is terrible. The camera is great.", vocab.Positive},
		{"The camera is great. I own a camera.", vocab.Positive},
	}
	for _, tt := range tests {
		got := e.Extract(tt.text)
		if got["camera"] != tt.want {
			t.Errorf("%q: camera = %s, want %s", tt.text, got["camera"], tt.want)
		}
	}
}

func TestExtractNoAspects(t *testing.T) {
	e := newExtractor(t)

	for _, text := range []string{"", "Delivered on time, great seller!", "   "} {
		if got := e.Extract(text); len(got) != 0 {
			t.Errorf("%q: expected empty map, got %v", text, got)
		}
	}
}

func TestExtractNeutralMentionDropped(t *testing.T) {
	e := newExtractor(t)

	if got := e.Extract("The screen is six inches."); len(got) != 0 {
		t.Errorf("neutral mention should not be stored, got %v", got)
	}
}

func TestExtractInflections(t *testing.T) {
	e := newExtractor(t)

	got := e.Extract("Lagging all day, charging issues too")
	want := Sentiments{"performance": vocab.Negative, "battery": vocab.Negative}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractEnglishPipeline(t *testing.T) {
	v := vocab.Default()
	lem := lexicon.NewLemmatizer(lexicon.English(), v.Words())
	p, err := ingest.NewEnglishPipeline(lem, nil)
	if err != nil {
		t.Fatalf("NewEnglishPipeline: %v", err)
	}
	e, err := NewExtractor(v, p)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	tests := []struct {
		name string
		text string
		want Sentiments
	}{
		{"hyphenated aspect", "well-designed phone, great", Sentiments{"design": vocab.Positive}},
		{"hyphenated irregular", "Well-built and great. Sound is awful.", Sentiments{"design": vocab.Positive, "sound": vocab.Negative}},
		{"stray angle bracket", "The battery is bad <but the camera is great", Sentiments{"battery": vocab.Negative, "camera": vocab.Negative}},
		{"markup", "<p>Great <b>camera</b></p>", Sentiments{"camera": vocab.Positive}},
		{"ok before capital", "Price is ok. Camera is great.", Sentiments{"camera": vocab.Positive}},
		{"ok after aspect phrase", "Battery life is ok. Camera is great.", Sentiments{"camera": vocab.Positive}},
		{"ok lower-case", "price is ok. camera is great.", Sentiments{"camera": vocab.Positive}},
		{"exclamation", "Screen is fine. Battery is bad!", Sentiments{"battery": vocab.Negative}},
		{"title abbreviation", "Mr. Smith says the camera is great.", Sentiments{"camera": vocab.Positive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Extract(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDegradesOnFailure(t *testing.T) {
	v := vocab.Default()
	e, err := NewExtractor(v, whitespaceNormalizer{panicOn: "boom camera great", failOn: "bad bytes camera great"})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	if got := e.Extract("boom camera great"); len(got) != 0 {
		t.Errorf("panicking normalizer should yield empty map, got %v", got)
	}
	if got := e.Extract("bad bytes camera great"); len(got) != 0 {
		t.Errorf("failing normalizer should yield empty map, got %v", got)
	}
	if got := e.Extract("camera great"); got["camera"] != vocab.Positive {
		t.Errorf("healthy row should still extract, got %v", got)
	}
}

func TestNewExtractorInvalidVocabulary(t *testing.T) {
	if _, err := NewExtractor(vocab.New(), whitespaceNormalizer{}); err == nil {
		t.Error("empty vocabulary should be rejected")
	}
}

func TestExtractAllKeepsOrderAndReportsProgress(t *testing.T) {
	e := newExtractor(t, WithWorkers(4))

	texts := []string{
		"Great camera.",
		"Battery is bad.",
		"Nothing to see here.",
		"Price is awesome.",
		"Speaker is awful.",
		"Design looks good.",
	}

	var (
		mu    sync.Mutex
		calls []int
	)
	results, err := e.ExtractAll(context.Background(), texts, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(texts) {
			t.Errorf("total = %d, want %d", total, len(texts))
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}

	if len(results) != len(texts) {
		t.Fatalf("Expected %d results, got %d", len(texts), len(results))
	}
	for i, text := range texts {
		if want := e.Extract(text); !reflect.DeepEqual(results[i], want) {
			t.Errorf("row %d: got %v, want %v", i, results[i], want)
		}
	}

	if len(calls) == 0 || calls[len(calls)-1] != len(texts) {
		t.Fatalf("last progress call should report %d, got %v", len(texts), calls)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Errorf("progress not strictly increasing: %v", calls)
		}
	}
}

// countingNormalizer closes all once target has been normalized want times.
type countingNormalizer struct {
	ingest.Normalizer
	target string
	want   int64
	n      atomic.Int64
	all    chan struct{}
}

func (c *countingNormalizer) SegmentAndLemmatize(text string) (ingest.Document, error) {
	doc, err := c.Normalizer.SegmentAndLemmatize(text)
	if text == c.target && c.n.Add(1) == c.want {
		close(c.all)
	}
	return doc, err
}

func TestExtractAllSlowProgressDoesNotBlockWorkers(t *testing.T) {
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "Great camera."
	}

	v := vocab.Default()
	cn := &countingNormalizer{
		Normalizer: newPipeline(v),
		target:     "Great camera.",
		want:       int64(len(texts)),
		all:        make(chan struct{}),
	}
	e, err := NewExtractor(v, cn, WithWorkers(4))
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	var (
		mu     sync.Mutex
		calls  []int
		active int
	)
	_, err = e.ExtractAll(context.Background(), texts, func(done, total int) {
		mu.Lock()
		active++
		if active > 1 {
			t.Error("progress called concurrently")
		}
		first := len(calls) == 0
		calls = append(calls, done)
		mu.Unlock()

		if first {
			// Every row must get extracted while the sink is busy.
			select {
			case <-cn.all:
			case <-time.After(5 * time.Second):
				t.Error("workers stalled behind the progress sink")
			}
		}

		mu.Lock()
		active--
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}

	if calls[len(calls)-1] != len(texts) {
		t.Errorf("last progress call = %d, want %d", calls[len(calls)-1], len(texts))
	}
	if len(calls) >= len(texts) {
		t.Errorf("counts finished during the slow call should be folded, got %d calls", len(calls))
	}
}

func TestExtractAllDeterministic(t *testing.T) {
	e := newExtractor(t, WithWorkers(3))
	texts := []string{
		"The camera is great but battery is bad",
		"Smooth performance and a stunning display",
		"Expensive but the sound is excellent. Build feels cheap and poor.",
	}

	first, err := e.ExtractAll(context.Background(), texts, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.ExtractAll(context.Background(), texts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction is not deterministic: %v vs %v", first, second)
	}
}

func TestExtractAllEmpty(t *testing.T) {
	e := newExtractor(t)

	results, err := e.ExtractAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestExtractAllCanceled(t *testing.T) {
	e := newExtractor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.ExtractAll(ctx, []string{"Great camera."}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
