package ingest

import "testing"

func spanTexts(text string, spans []Span) []string {
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp.Start:sp.End]
	}
	return out
}

func TestSimpleSegmenter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "the camera is great", []string{"the camera is great"}},
		{"two sentences", "great camera. battery is bad!", []string{"great camera.", "battery is bad!"}},
		{"decimal", "rated 4.5 overall. nice", []string{"rated 4.5 overall.", "nice"}},
		{"ellipsis", "hmm... slow", []string{"hmm...", "slow"}},
		{"newlines", "screen ok\n\nprice high", []string{"screen ok", "price high"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spanTexts(tt.text, SimpleSegmenter{}.Segment(tt.text))
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPunktSegmenter(t *testing.T) {
	seg, err := NewPunktSegmenter()
	if err != nil {
		t.Fatalf("NewPunktSegmenter: %v", err)
	}

	text := "the camera is great. the battery is bad."
	spans := seg.Segment(text)
	if len(spans) != 2 {
		t.Fatalf("Expected 2 sentences, got %q", spanTexts(text, spans))
	}
	if got := text[spans[1].Start:spans[1].End]; got != "the battery is bad." {
		t.Errorf("second sentence = %q", got)
	}
}

func TestPunktSegmenterSingleSentence(t *testing.T) {
	seg, err := NewPunktSegmenter()
	if err != nil {
		t.Fatalf("NewPunktSegmenter: %v", err)
	}

	text := "the camera is great but battery is bad"
	spans := seg.Segment(text)
	if len(spans) != 1 || spans[0].Start != 0 || spans[0].End != len(text) {
		t.Errorf("Expected one full-length span, got %v", spans)
	}
}

func TestPunktSegmenterReviewAbbreviations(t *testing.T) {
	seg, err := NewPunktSegmenter()
	if err != nil {
		t.Fatalf("NewPunktSegmenter: %v", err)
	}

	tests := []struct {
		text string
		want []string
	}{
		{"Price is ok. Camera is great.", []string{"Price is ok.", "Camera is great."}},
		{"Battery life is ok. Camera is great.", []string{"Battery life is ok.", "Camera is great."}},
		{"price is ok. camera is great.", []string{"price is ok.", "camera is great."}},
		{"Mr. Smith likes the camera.", []string{"Mr. Smith likes the camera."}},
	}

	for _, tt := range tests {
		got := spanTexts(tt.text, seg.Segment(tt.text))
		if len(got) != len(tt.want) {
			t.Errorf("Segment(%q) = %q, want %q", tt.text, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Segment(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSplitAfterPeriods(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"upper-case start", "screen is fine. Battery dies", []string{"screen is fine.", "Battery dies"}},
		{"sentence-final word", "price is ok. camera rocks", []string{"price is ok.", "camera rocks"}},
		{"lower-case continuation", "approx. two days", []string{"approx. two days"}},
		{"title", "Dr. Who reviewed it", []string{"Dr. Who reviewed it"}},
		{"initial", "J. Smith liked it", []string{"J. Smith liked it"}},
		{"dotted abbreviation", "extras e.g. Case included", []string{"extras e.g. Case included"}},
		{"trailing period", "nice phone.", []string{"nice phone."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spanTexts(tt.text, splitAfterPeriods(tt.text, Span{Start: 0, End: len(tt.text)}))
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("piece %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
