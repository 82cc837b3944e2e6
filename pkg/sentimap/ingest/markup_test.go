package ingest

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>Great <b>camera</b></p>", "Great camera"},
		{"screen<br>battery", "screen battery"},
		{"price &amp; value", "price & value"},
		{"<script>alert(1)</script>nice", "nice"},
		{"<style>p{color:red}</style><p>ok</p>", "ok"},
		// A stray '<' is text, not the start of a tag.
		{"The battery is bad <but the camera is great", "The battery is bad <but the camera is great"},
		{"price < value &amp; fast", "price < value & fast"},
		{"bad <but camera <b>great</b>", "bad <but camera great"},
	}

	for _, tt := range tests {
		got := strings.Join(strings.Fields(StripMarkup(tt.in)), " ")
		if got != tt.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
