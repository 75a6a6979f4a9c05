package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"catmirror/internal/logger"
	"catmirror/internal/normalizer"
)

// ErrEmptyCSV indicates a distribution with no header row.
var ErrEmptyCSV = errors.New("empty csv payload")

// transformCSV streams src to dst with every header label normalized to
// snake_case. Data rows pass through untouched. Returns the number of data
// rows written.
func transformCSV(src io.Reader, dst io.Writer, log *logger.Logger) (int, error) {
	reader := csv.NewReader(src)
	writer := csv.NewWriter(dst)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return 0, ErrEmptyCSV
		}

		return 0, fmt.Errorf("failed to parse csv header: %w", err)
	}

	normalized, collisions := normalizeHeader(header)
	for _, name := range collisions {
		log.Warn("column name collision after normalization", "column", name)
	}

	if err := writer.Write(normalized); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return rows, fmt.Errorf("failed to parse csv row %d: %w", rows+1, err)
		}

		if err := writer.Write(record); err != nil {
			return rows, fmt.Errorf("failed to write csv row %d: %w", rows+1, err)
		}

		rows++
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush csv output: %w", err)
	}

	return rows, nil
}

// normalizeHeader maps every label through normalizer.Snake. When two
// columns normalize to the same name, the first keeps it and later
// duplicates get a positional numeric suffix (date, date_2, date_3), so no
// column is ever dropped. The second return value lists the colliding base
// names for logging.
func normalizeHeader(header []string) ([]string, []string) {
	counts := make(map[string]int, len(header))
	normalized := make([]string, len(header))

	var collisions []string

	for i, label := range header {
		name := normalizer.Snake(label)

		counts[name]++
		if counts[name] > 1 {
			collisions = append(collisions, name)

			suffixed := fmt.Sprintf("%s_%d", name, counts[name])
			for counts[suffixed] > 0 {
				counts[name]++
				suffixed = fmt.Sprintf("%s_%d", name, counts[name])
			}

			counts[suffixed]++
			name = suffixed
		}

		normalized[i] = name
	}

	return normalized, collisions
}
