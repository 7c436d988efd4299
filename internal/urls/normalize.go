// Package urls turns raw user input into a clean list of testable URLs.
package urls

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Normalize cleans a list of raw URL candidates, one per line of user input:
// trim whitespace, drop blanks, prepend https:// where no http(s) scheme is
// present, de-duplicate preserving first-seen order, and drop anything that
// does not parse as an http(s) URL with a host. Invalid entries vanish
// silently; callers report only the surviving count.
//
// Normalize is pure and idempotent: running it on its own output is a no-op.
func Normalize(lines []string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			line = "https://" + line
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		if valid(line) {
			out = append(out, line)
		}
	}

	return out
}

// valid reports whether u is a usable http(s) URL. A second "://" means the
// input carried its own non-http scheme (ftp://, etc.) before we prefixed it;
// Go's parser would happily read the scheme as part of the host, so reject it
// explicitly.
func valid(u string) bool {
	if strings.Count(u, "://") != 1 {
		return false
	}
	p, err := url.Parse(u)
	if err != nil {
		return false
	}
	return (p.Scheme == "http" || p.Scheme == "https") && p.Host != ""
}

// ReadFile loads a URL list file (one candidate per line) and normalizes it.
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading url list: %w", err)
	}
	return Normalize(strings.Split(string(data), "\n")), nil
}
