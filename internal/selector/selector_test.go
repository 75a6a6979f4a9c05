package selector

import (
	"testing"
	"time"

	"catmirror/internal/catalog"
	"catmirror/internal/checkpoint"
	"catmirror/internal/logger"
)

var testLog = logger.NewLogger("error", "text")

func hospitalDescriptor(identifier, modified string) catalog.Descriptor {
	return catalog.Descriptor{
		Identifier: identifier,
		Title:      "Hospital General Information",
		Themes:     []string{"Hospitals"},
		Modified:   modified,
		Distributions: []catalog.Distribution{
			{MediaType: "text/csv", DownloadURL: "http://example.com/" + identifier + ".csv"},
		},
	}
}

func TestSelectChanges_NewDataset(t *testing.T) {
	descriptors := []catalog.Descriptor{hospitalDescriptor("A", "2024-03-01")}

	tasks := SelectChanges(descriptors, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}

	task := tasks[0]
	if task.Identifier != "A" {
		t.Errorf("Identifier = %s, want A", task.Identifier)
	}

	if task.DownloadURL != "http://example.com/A.csv" {
		t.Errorf("DownloadURL = %s", task.DownloadURL)
	}

	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !task.Modified.Equal(want) {
		t.Errorf("Modified = %v, want %v", task.Modified, want)
	}
}

func TestSelectChanges_UnchangedDataset(t *testing.T) {
	descriptors := []catalog.Descriptor{hospitalDescriptor("A", "2024-03-01")}
	cp := checkpoint.Checkpoint{"A": "2024-03-01"}

	tasks := SelectChanges(descriptors, cp, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Equal dates must not re-ingest, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_StaleWatermark(t *testing.T) {
	descriptors := []catalog.Descriptor{hospitalDescriptor("A", "2024-03-01")}
	cp := checkpoint.Checkpoint{"A": "2024-02-15"}

	tasks := SelectChanges(descriptors, cp, "Hospitals", testLog)

	if len(tasks) != 1 {
		t.Fatalf("Strictly newer date must be selected, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_NewerWatermark(t *testing.T) {
	descriptors := []catalog.Descriptor{hospitalDescriptor("A", "2024-03-01")}
	cp := checkpoint.Checkpoint{"A": "2024-04-01"}

	tasks := SelectChanges(descriptors, cp, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Older catalog date must not be selected, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_ThemeMismatch(t *testing.T) {
	desc := hospitalDescriptor("B", "2024-03-01")
	desc.Themes = []string{"Payments"}

	tasks := SelectChanges([]catalog.Descriptor{desc}, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Non-matching theme must never be selected, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_ThemeSubstringMatch(t *testing.T) {
	desc := hospitalDescriptor("A", "2024-03-01")
	desc.Themes = []string{"Rural Hospitals Initiative"}

	tasks := SelectChanges([]catalog.Descriptor{desc}, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 1 {
		t.Errorf("Substring theme match expected, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_ThemeCaseSensitive(t *testing.T) {
	desc := hospitalDescriptor("A", "2024-03-01")
	desc.Themes = []string{"hospitals"}

	tasks := SelectChanges([]catalog.Descriptor{desc}, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Theme matching is case-sensitive, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_AbsentModified(t *testing.T) {
	desc := hospitalDescriptor("A", "")

	tasks := SelectChanges([]catalog.Descriptor{desc}, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Absent modified date must skip, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_InvalidModified(t *testing.T) {
	desc := hospitalDescriptor("A", "03/01/2024")

	tasks := SelectChanges([]catalog.Descriptor{desc}, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Unparsable modified date must skip the whole descriptor, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_NoCSVDistribution(t *testing.T) {
	desc := hospitalDescriptor("A", "2024-03-01")
	desc.Distributions = []catalog.Distribution{
		{MediaType: "application/json", DownloadURL: "http://example.com/A.json"},
	}

	tasks := SelectChanges([]catalog.Descriptor{desc}, checkpoint.Checkpoint{}, "Hospitals", testLog)

	if len(tasks) != 0 {
		t.Errorf("Descriptor without CSV distribution must skip, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_CorruptStoredWatermark(t *testing.T) {
	descriptors := []catalog.Descriptor{hospitalDescriptor("A", "2024-03-01")}
	cp := checkpoint.Checkpoint{"A": "not-a-date"}

	tasks := SelectChanges(descriptors, cp, "Hospitals", testLog)

	if len(tasks) != 1 {
		t.Errorf("Unparsable stored watermark must be treated as absent, got %d tasks", len(tasks))
	}
}

func TestSelectChanges_MixedCatalog(t *testing.T) {
	descriptors := []catalog.Descriptor{
		hospitalDescriptor("new", "2024-03-01"),
		hospitalDescriptor("unchanged", "2024-01-01"),
		hospitalDescriptor("updated", "2024-02-20"),
	}

	cp := checkpoint.Checkpoint{
		"unchanged": "2024-01-01",
		"updated":   "2024-02-01",
	}

	tasks := SelectChanges(descriptors, cp, "Hospitals", testLog)

	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}

	got := map[string]bool{}
	for _, task := range tasks {
		got[task.Identifier] = true
	}

	if !got["new"] || !got["updated"] {
		t.Errorf("Expected tasks for new and updated, got %v", got)
	}
}
