package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bulkspeed/bulkspeed/internal/pagespeed"
	"github.com/bulkspeed/bulkspeed/internal/runner"
)

func intp(n int) *int { return &n }

func sampleOutcomes() []runner.Outcome {
	return []runner.Outcome{
		{
			URL: "https://a.com", Device: pagespeed.DeviceMobile,
			Score: intp(87), FCP: "1.2 s", LCP: "2.4 s", TBT: "150 ms", CLS: "0.01",
		},
		{
			URL: "https://b.com", Device: pagespeed.DeviceDesktop,
			Failed: true, FCP: "HTTP 503: Service Unavailable",
		},
		{
			// success without a score
			URL: "https://c.com", Device: pagespeed.DeviceMobile,
			FCP: "0.9 s",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleOutcomes()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "URL,Device,Performance Score,FCP,LCP,TBT,CLS\n" +
		"https://a.com,mobile,87,1.2 s,2.4 s,150 ms,0.01\n" +
		"https://b.com,desktop,Error,HTTP 503: Service Unavailable,,,\n" +
		"https://c.com,mobile,,0.9 s,,,\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSVFile(path, sampleOutcomes()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "URL,Device,Performance Score") {
		t.Errorf("file starts with %q", string(data[:40]))
	}
}

func TestWriteCSVFile_BadPath(t *testing.T) {
	err := WriteCSVFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestTable(t *testing.T) {
	got := Table(sampleOutcomes())

	for _, want := range []string{"URL", "Performance Score", "https://a.com", "87", "Error", "HTTP 503"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleOutcomes())
	if s.Total != 3 {
		t.Errorf("total = %d, want 3", s.Total)
	}
	if s.Failed != 1 {
		t.Errorf("failed = %d, want 1", s.Failed)
	}
	if s.Scored != 1 {
		t.Errorf("scored = %d, want 1", s.Scored)
	}
	if s.AverageScore != 87 {
		t.Errorf("average = %d, want 87", s.AverageScore)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Failed != 0 || s.Scored != 0 || s.AverageScore != 0 {
		t.Errorf("summary = %+v, want zero values", s)
	}
}
