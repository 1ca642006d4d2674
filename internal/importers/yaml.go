package importers

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlCatalog struct {
	Books []yamlBook `yaml:"books"`
}

type yamlBook struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	// A node keeps the year textual whether it is written as 1965 or "1965".
	Year yaml.Node `yaml:"year"`
}

// ParseCatalogYAML parses a YAML seed file with a top-level books list.
func ParseCatalogYAML(r io.Reader) ([]RawBook, []string, error) {
	var doc yamlCatalog
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	var books []RawBook
	var problems []string
	for i, b := range doc.Books {
		if b.Title == "" {
			problems = append(problems, fmt.Sprintf("Entry %d: missing title", i+1))
			continue
		}
		books = append(books, RawBook{Title: b.Title, Author: b.Author, Year: b.Year.Value})
	}
	return books, problems, nil
}
