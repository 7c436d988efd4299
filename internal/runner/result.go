package runner

import "github.com/bulkspeed/bulkspeed/internal/pagespeed"

// Task is one (URL, device) unit of work. Each task resolves to exactly one
// Outcome, however many attempts that takes.
type Task struct {
	URL    string
	Device pagespeed.Device
}

// Outcome is the terminal result of a task. Failures are stored in the value
// rather than returned, so a batch always yields one row per task.
//
// On a failed outcome Score is nil and FCP carries the failure description
// ("HTTP 503: ..." or "request failed: ..."), matching the exported report
// layout where the first metric column doubles as the error column.
type Outcome struct {
	URL    string
	Device pagespeed.Device
	Score  *int // nil when failed, or when the API returned no score
	Failed bool
	FCP    string
	LCP    string
	TBT    string
	CLS    string
}
