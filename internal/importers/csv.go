package importers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCatalogCSV parses a catalog CSV file. Columns are located by header
// name; title and author are required, year is optional and any book_id
// column is ignored. Returns the parsed rows, per-line problems, and a
// fatal error if the file cannot be parsed at all.
func ParseCatalogCSV(r io.Reader) ([]RawBook, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, h := range []string{"title", "author"} {
		if _, ok := headerIndex[h]; !ok {
			return nil, nil, fmt.Errorf("missing required header: %s", h)
		}
	}

	var books []RawBook
	var problems []string
	lineNum := 1 // Start at 1 because we already read the header

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}

		book := RawBook{
			Title:  getCSVValue(record, headerIndex, "title"),
			Author: getCSVValue(record, headerIndex, "author"),
			Year:   getCSVValue(record, headerIndex, "year"),
		}
		if book.Title == "" {
			problems = append(problems, fmt.Sprintf("Line %d: missing title", lineNum))
			continue
		}
		books = append(books, book)
	}

	return books, problems, nil
}

func getCSVValue(record []string, headerIndex map[string]int, key string) string {
	idx, ok := headerIndex[key]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}
