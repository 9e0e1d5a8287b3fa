package detection

import (
	"os"
	"path/filepath"
	"testing"

	"humandetector/internal/model"
)

func TestCOCOLabels(t *testing.T) {
	labels := COCOLabels()

	if labels.Name(1) != model.PersonLabel {
		t.Errorf("Expected id 1 to be %q, got %q", model.PersonLabel, labels.Name(1))
	}
	if labels.Name(18) != "dog" {
		t.Errorf("Expected id 18 to be dog, got %q", labels.Name(18))
	}
	if labels.Name(12) != "unknown12" {
		t.Errorf("Expected unused id to be unknown12, got %q", labels.Name(12))
	}
	if len(labels) != 80 {
		t.Errorf("Expected 80 COCO classes, got %d", len(labels))
	}
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("person\n bicycle \n\ncar\n"), 0644); err != nil {
		t.Fatalf("Failed to write labels: %v", err)
	}

	labels, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("LoadLabels failed: %v", err)
	}

	want := map[int]string{1: "person", 2: "bicycle", 4: "car"}
	for id, name := range want {
		if labels.Name(id) != name {
			t.Errorf("Expected id %d to be %q, got %q", id, name, labels.Name(id))
		}
	}
	if _, ok := labels[3]; ok {
		t.Error("Expected blank line to leave id 3 unused")
	}
}

func TestLoadLabels_Errors(t *testing.T) {
	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("\n\n"), 0644); err != nil {
		t.Fatalf("Failed to write labels: %v", err)
	}
	if _, err := LoadLabels(empty); err == nil {
		t.Error("Expected error for empty labels file")
	}
}
