// Package notify announces finished batches over Shoutrrr (Slack, Telegram,
// email, ...). The message is a Go template with Sprig functions applied to
// the run summary.
package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/bulkspeed/bulkspeed/internal/report"
)

// DefaultTemplate is used when the config sets no notify template.
const DefaultTemplate = `PageSpeed audit finished: {{ .Total }} checks, {{ .Failed }} failed` +
	`{{ if .Scored }}, average score {{ .AverageScore }}{{ end }} ({{ .Duration }})`

// TemplateData is what notify templates render against.
type TemplateData struct {
	Total        int
	Failed       int
	Scored       int
	AverageScore int
	Duration     string
	Output       string // path of the exported CSV
}

// BuildTemplateData flattens a run summary for templating.
func BuildTemplateData(s report.Summary, output string, elapsed time.Duration) TemplateData {
	return TemplateData{
		Total:        s.Total,
		Failed:       s.Failed,
		Scored:       s.Scored,
		AverageScore: s.AverageScore,
		Duration:     elapsed.Round(time.Second).String(),
		Output:       output,
	}
}

// Render executes a message template with the Sprig function set.
func Render(tmplStr string, data TemplateData) (string, error) {
	t, err := template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing notify template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing notify template: %w", err)
	}

	return buf.String(), nil
}

// Service is one delivery target: a Shoutrrr URL plus optional params
// (chat ids, subjects, parse modes).
type Service struct {
	URL    string
	Params map[string]string
}

// Send delivers message to a single service.
func Send(svc Service, message string) error {
	sender, err := shoutrrr.CreateSender(svc.URL)
	if err != nil {
		return fmt.Errorf("creating sender: %w", err)
	}

	params := types.Params(svc.Params)
	for _, e := range sender.Send(message, &params) {
		if e != nil {
			return fmt.Errorf("sending: %w", e)
		}
	}

	return nil
}
