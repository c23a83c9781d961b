package simple

import (
	"path/filepath"
	"testing"
)

func TestFileVersionsRoundTripsThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")

	fv := NewFileVersions(path)
	if err := fv.SetRouterVersion("7"); err != nil {
		t.Fatalf("SetRouterVersion: %v", err)
	}
	if err := fv.SetNewsBaseline("1700000000000"); err != nil {
		t.Fatalf("SetNewsBaseline: %v", err)
	}

	reloaded := NewFileVersions(path)
	if v, ok := reloaded.RouterVersion(); !ok || v != "7" {
		t.Fatalf("expected the reloaded store to see the saved router version, got %q, %v", v, ok)
	}
	if v, ok := reloaded.NewsBaseline(); !ok || v != "1700000000000" {
		t.Fatalf("expected the reloaded store to see the saved news baseline, got %q, %v", v, ok)
	}
}

func TestFileVersionsReportsMissingFieldsAsNotOK(t *testing.T) {
	fv := NewFileVersions(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if _, ok := fv.RouterVersion(); ok {
		t.Fatalf("expected no router version before one is ever set")
	}
	if _, ok := fv.NewsBaseline(); ok {
		t.Fatalf("expected no news baseline before one is ever set")
	}
}

func TestFileVersionsToleratesAnEmptyPath(t *testing.T) {
	fv := NewFileVersions("")
	if err := fv.SetRouterVersion("1"); err != nil {
		t.Fatalf("SetRouterVersion with no backing file should not error: %v", err)
	}
	if v, ok := fv.RouterVersion(); !ok || v != "1" {
		t.Fatalf("expected the in-memory value to still be readable, got %q, %v", v, ok)
	}
}
