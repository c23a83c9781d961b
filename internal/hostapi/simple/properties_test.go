package simple

import (
	"path/filepath"
	"testing"
)

func TestFilePropertiesRoundTripsThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "props.json")

	fp := NewFileProperties(path)
	if err := fp.SaveProperty("router.updateUnsignedAvailable", "1"); err != nil {
		t.Fatalf("SaveProperty: %v", err)
	}

	reloaded := NewFileProperties(path)
	v, ok := reloaded.GetProperty("router.updateUnsignedAvailable")
	if !ok || v != "1" {
		t.Fatalf("expected the reloaded store to see the saved value, got %q, %v", v, ok)
	}
}

func TestFilePropertiesGetPropertyMissingKey(t *testing.T) {
	fp := NewFileProperties(filepath.Join(t.TempDir(), "props.json"))
	if _, ok := fp.GetProperty("nope"); ok {
		t.Fatalf("expected a missing key to report ok=false")
	}
}

func TestFilePropertiesLoadsExistingFileOnConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "props.json")
	first := NewFileProperties(path)
	_ = first.SaveProperty("a", "1")
	_ = first.SaveProperty("b", "2")

	second := NewFileProperties(path)
	if v, ok := second.GetProperty("a"); !ok || v != "1" {
		t.Fatalf("expected preloaded key a=1, got %q, %v", v, ok)
	}
	if v, ok := second.GetProperty("b"); !ok || v != "2" {
		t.Fatalf("expected preloaded key b=2, got %q, %v", v, ok)
	}
}

func TestFilePropertiesToleratesAMissingFileOnConstruction(t *testing.T) {
	fp := NewFileProperties(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if _, ok := fp.GetProperty("anything"); ok {
		t.Fatalf("expected an empty store when the backing file doesn't exist")
	}
}
