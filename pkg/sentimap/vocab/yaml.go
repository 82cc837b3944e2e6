package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk vocabulary format.
//
//	aspects:
//	  - name: camera
//	    terms: [camera, photo, picture]
//	positive: [good, great]
//	negative: [bad, slow]
//
// Aspects are a list rather than a map so registration order survives.
type File struct {
	Aspects []struct {
		Name  string   `yaml:"name"`
		Terms []string `yaml:"terms"`
	} `yaml:"aspects"`
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// LoadYAML reads a vocabulary from a YAML file.
func LoadYAML(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML decodes and validates a vocabulary document.
func ParseYAML(data []byte) (*Vocabulary, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	v := New()
	for _, a := range f.Aspects {
		v.AddAspect(a.Name, a.Terms)
	}
	v.AddPositive(f.Positive...)
	v.AddNegative(f.Negative...)

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}
