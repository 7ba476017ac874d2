package paginate

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// TestSplitProperty checks the page-splitting contract for arbitrary
// input: no page holds more than pageSize lines, no page exceeds the
// budget unless it is a single oversized line, and joining the pages
// reproduces the input lines unchanged and in order.
func TestSplitProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(
			rapid.StringMatching(`[a-zA-Z0-9 :]{0,60}`),
			0, 80,
		).Draw(t, "lines")
		pageSize := rapid.IntRange(1, 30).Draw(t, "pageSize")
		budget := rapid.IntRange(10, 500).Draw(t, "budget")

		pages := Split(lines, pageSize, budget)

		var joined []string
		for _, page := range pages {
			pageLines := strings.Split(page, "\n")
			if len(pageLines) > pageSize {
				t.Fatalf("page holds %d lines, page size is %d", len(pageLines), pageSize)
			}
			if len(page) > budget && len(pageLines) > 1 {
				t.Fatalf("page of %d lines exceeds budget %d (%d chars)", len(pageLines), budget, len(page))
			}
			joined = append(joined, pageLines...)
		}

		if len(lines) == 0 {
			if len(pages) != 0 {
				t.Fatalf("empty input produced %d pages", len(pages))
			}
			return
		}
		if len(joined) != len(lines) {
			t.Fatalf("split produced %d lines, want %d", len(joined), len(lines))
		}
		for i := range lines {
			if joined[i] != lines[i] {
				t.Fatalf("line %d changed: %q -> %q", i, lines[i], joined[i])
			}
		}
	})
}
