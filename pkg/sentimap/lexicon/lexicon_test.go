package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	lex := New()
	lex.AddGroup("picture", []string{"pics", "pic", "Pictures"})

	tests := []struct {
		in, want string
	}{
		{"pics", "picture"},
		{"PIC", "picture"},
		{"pictures", "picture"},
		{"picture", "picture"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := lex.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddGroupDedupesForms(t *testing.T) {
	lex := New()
	lex.AddGroup("bad", []string{"worse", "worst", "worse"})

	forms := lex.groups["bad"]
	if len(forms) != 3 || forms[0] != "bad" {
		t.Errorf("Expected [bad worse worst], got %v", forms)
	}
	if lex.Normalize("worst") != "bad" || lex.Normalize("other") != "other" {
		t.Error("reverse index not built")
	}
}

func TestAddGroupReplacesOldForms(t *testing.T) {
	lex := New()
	lex.AddGroup("screen", []string{"screens", "scrn"})
	lex.AddGroup("screen", []string{"screens"})

	if lex.Has("scrn") {
		t.Error("stale form should be removed from the reverse index")
	}
	if lex.Normalize("screens") != "screen" {
		t.Error("retained form should still normalize")
	}
}

func TestMerge(t *testing.T) {
	base := English()
	extra := New()
	extra.AddGroup("picture", []string{"pics"})

	base.Merge(extra)
	base.Merge(nil)

	if base.Normalize("pics") != "picture" {
		t.Error("merged group missing")
	}
	if base.Normalize("worse") != "bad" {
		t.Error("English irregulars should survive merge")
	}
}

func TestEnglishIrregulars(t *testing.T) {
	lex := English()
	tests := map[string]string{
		"was":    "be",
		"built":  "build",
		"better": "good",
		"worst":  "bad",
		"paid":   "pay",
	}
	for in, want := range tests {
		if got := lex.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.yaml")
	content := `
lemmas:
  - lemma: picture
    forms: [pics, pic]
  - lemma: ""
    forms: [ignored]
  - lemma: Charge
    forms: [juice]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}

	stats := lex.Stats()
	if stats.Groups != 2 {
		t.Errorf("Expected 2 groups, got %d", stats.Groups)
	}
	if stats.TotalForms != 5 {
		t.Errorf("Expected 5 forms, got %d", stats.TotalForms)
	}
	if lex.Normalize("juice") != "charge" {
		t.Error("lemma should be lower-cased")
	}
	if lex.Has("ignored") {
		t.Error("group with empty lemma should be skipped")
	}
}

func TestLoadFromYAMLErrors(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("lemmas: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromYAML(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}
