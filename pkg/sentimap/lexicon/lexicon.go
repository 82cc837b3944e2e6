package lexicon

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon stores inflection mappings from surface forms to lemmas:
// - Irregular forms: worse → bad, built → build
// - Domain variants: pics → picture, glitches → issue
//
// Groups are kept per lemma so a later group replaces the forms of an
// earlier one.
type Lexicon struct {
	// lemma -> all forms (including the lemma itself)
	// Example: "bad" -> ["bad", "worse", "worst"]
	groups map[string][]string

	// form -> lemma
	// Example: "worse" -> "bad"
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		groups:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// English returns a lexicon preloaded with common irregular English forms.
func English() *Lexicon {
	lex := New()
	for lemma, forms := range englishIrregulars {
		lex.AddGroup(lemma, forms)
	}
	return lex
}

var englishIrregulars = map[string][]string{
	"be":    {"am", "is", "are", "was", "were", "been", "being"},
	"have":  {"has", "had", "having"},
	"do":    {"does", "did", "done", "doing"},
	"go":    {"goes", "went", "gone", "going"},
	"get":   {"gets", "got", "gotten", "getting"},
	"make":  {"makes", "made", "making"},
	"take":  {"takes", "took", "taken", "taking"},
	"buy":   {"buys", "bought", "buying"},
	"pay":   {"pays", "paid", "paying"},
	"feel":  {"feels", "felt", "feeling"},
	"build": {"builds", "built"},
	"break": {"breaks", "broke", "broken"},
	"die":   {"dies", "died", "dying"},
	"good":  {"better", "best"},
	"bad":   {"worse", "worst"},
	"child": {"children"},
	"man":   {"men"},
	"woman": {"women"},
}

// LoadFromYAML loads lemma groups from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: picture
//	    forms: [pics, pic, pictures]
//	  - lemma: bad
//	    forms: [worse, worst]
//
// All entries are lower-cased; the lemma is included in its own form list.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Lemmas {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		lex.AddGroup(entry.Lemma, entry.Forms)
	}

	return lex, nil
}

// AddGroup adds a lemma with its surface forms. The lemma is always the
// first entry of the group. Re-adding a lemma replaces its previous forms.
func (l *Lexicon) AddGroup(lemma string, forms []string) {
	lemma = strings.ToLower(strings.TrimSpace(lemma))

	if oldForms, exists := l.groups[lemma]; exists {
		for _, f := range oldForms {
			if l.reverseIndex[f] == lemma {
				delete(l.reverseIndex, f)
			}
		}
	}

	normalized := make([]string, 0, len(forms)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, lemma)
	seen[lemma] = true

	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.groups[lemma] = normalized
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// Merge copies every group of other into l. Groups in other win on conflict.
func (l *Lexicon) Merge(other *Lexicon) {
	if other == nil {
		return
	}
	for _, lemma := range other.Lemmas() {
		l.AddGroup(lemma, other.groups[lemma])
	}
}

// Normalize returns the lemma registered for a form.
// If the form is not in the lexicon, returns the form itself.
//
// Examples:
//   - Normalize("worse") -> "bad"
//   - Normalize("unknown") -> "unknown"
func (l *Lexicon) Normalize(form string) string {
	form = strings.ToLower(form)
	if lemma, ok := l.reverseIndex[form]; ok {
		return lemma
	}
	return form
}

// Has reports whether the form is registered.
func (l *Lexicon) Has(form string) bool {
	_, exists := l.reverseIndex[strings.ToLower(form)]
	return exists
}

// Lemmas returns every registered lemma, sorted.
func (l *Lexicon) Lemmas() []string {
	out := make([]string, 0, len(l.groups))
	for lemma := range l.groups {
		out = append(out, lemma)
	}
	sort.Strings(out)
	return out
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, forms := range l.groups {
		total += len(forms)
	}
	return Stats{Groups: len(l.groups), TotalForms: total}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Groups     int // Number of lemmas
	TotalForms int // Total number of forms across all groups
}
