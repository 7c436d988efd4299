package urls

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalize_PrependsScheme(t *testing.T) {
	got := Normalize([]string{"example.com", "http://plain.com", "https://secure.com"})
	want := []string{"https://example.com", "http://plain.com", "https://secure.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_TrimsAndSkipsBlanks(t *testing.T) {
	got := Normalize([]string{"  example.com  ", "", "   ", "\tother.com"})
	want := []string{"https://example.com", "https://other.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_Dedupe(t *testing.T) {
	// Prefixing happens before the dedupe comparison, so a bare host and its
	// https form collapse into one entry.
	got := Normalize([]string{"a.com", "https://a.com", "a.com"})
	want := []string{"https://a.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_DedupeReverseOrder(t *testing.T) {
	got := Normalize([]string{"https://a.com", "a.com"})
	want := []string{"https://a.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_DedupePreservesFirstSeenOrder(t *testing.T) {
	got := Normalize([]string{"b.com", "a.com", "b.com", "c.com", "a.com"})
	want := []string{"https://b.com", "https://a.com", "https://c.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_DropsInvalid(t *testing.T) {
	got := Normalize([]string{"not a url", "ftp://x.com", "https://valid.com"})
	want := []string{"https://valid.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_DropsSchemeOnlyAndEmptyHost(t *testing.T) {
	got := Normalize([]string{"https://", "http://", "https:///path-only"})
	if len(got) != 0 {
		t.Errorf("Normalize = %v, want empty", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	input := []string{"a.com", "  b.com ", "https://a.com", "not a url", "c.com/path?q=1"}
	once := Normalize(input)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Normalize not idempotent: first %v, second %v", once, twice)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "example.com\n\nhttps://example.com\nother.org\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://example.com", "https://other.org"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadFile = %v, want %v", got, want)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
