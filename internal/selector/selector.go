// Package selector decides which catalog entries need ingestion.
package selector

import (
	"strings"
	"time"

	"catmirror/internal/catalog"
	"catmirror/internal/checkpoint"
	"catmirror/internal/logger"
)

// DateLayout is the calendar-date form used by the metastore and the
// checkpoint file.
const DateLayout = "2006-01-02"

// Task is the unit of work handed to the ingestion pool. Tasks are built
// only for descriptors that pass every selection step.
type Task struct {
	Identifier  string
	Title       string
	DownloadURL string
	Modified    time.Time
}

// SelectChanges returns one task per descriptor requiring ingestion. It is a
// pure transformation over its inputs; skipped descriptors are logged but
// nothing is mutated.
//
// A descriptor is selected when all of the following hold: at least one of
// its themes contains the filter term (case-sensitive substring); it carries
// a parsable modified date; that date is strictly newer than the stored
// watermark, if any; and it offers a CSV distribution. Equal dates are not
// re-ingested, which keeps repeated runs against an unchanged catalog
// idempotent.
func SelectChanges(descriptors []catalog.Descriptor, cp checkpoint.Checkpoint, theme string, log *logger.Logger) []Task {
	var tasks []Task

	for _, desc := range descriptors {
		if !matchesTheme(desc.Themes, theme) {
			continue
		}

		if desc.Modified == "" {
			log.Debug("skipping dataset without modified date", "identifier", desc.Identifier)

			continue
		}

		modified, err := time.Parse(DateLayout, desc.Modified)
		if err != nil {
			// A malformed date drops the whole descriptor for this run
			// rather than treating it as always stale.
			log.Warn("skipping dataset with invalid date format",
				"identifier", desc.Identifier,
				"modified", desc.Modified,
			)

			continue
		}

		if stored, ok := cp[desc.Identifier]; ok {
			watermark, err := time.Parse(DateLayout, stored)
			if err != nil {
				// An unreadable stored watermark is treated as absent so
				// the dataset is re-ingested instead of wedged forever.
				log.Warn("ignoring unparsable stored watermark",
					"identifier", desc.Identifier,
					"watermark", stored,
				)
			} else if !modified.After(watermark) {
				continue
			}
		}

		dist, ok := desc.PrimaryDistribution()
		if !ok {
			log.Debug("skipping dataset without CSV distribution", "identifier", desc.Identifier)

			continue
		}

		tasks = append(tasks, Task{
			Identifier:  desc.Identifier,
			Title:       desc.Title,
			DownloadURL: dist.DownloadURL,
			Modified:    modified,
		})
	}

	return tasks
}

func matchesTheme(themes []string, filter string) bool {
	for _, theme := range themes {
		if strings.Contains(theme, filter) {
			return true
		}
	}

	return false
}
