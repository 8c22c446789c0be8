package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/veritas/output"
)

// slowThreshold marks operations highlighted in reports.
const slowThreshold = 100 * time.Millisecond

// formatTimingTree outputs the timing tree in a hierarchical format.
// Example output:
//
//	run: 125ms
//	├─ load: 85ms
//	│  ├─ journal.xlsx: 45ms
//	│  └─ rules.xlsx: 5ms
//	└─ transform (1200 entries): 40ms
func formatTimingTree(w io.Writer, root *timerNode, styles *output.Styles) {
	duration := root.end.Sub(root.start)

	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(duration))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

// formatNode recursively formats a node and its children.
func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *output.Styles) {
	duration := node.end.Sub(node.start)

	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	if styles != nil {
		timing := styles.Timing(formatDuration(duration), duration >= slowThreshold)
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), node.name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, node.name, formatDuration(duration))
	}

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

func formatCounters(w io.Writer, order []string, counters map[string]int, styles *output.Styles) {
	width := 0
	for _, name := range order {
		if len(name) > width {
			width = len(name)
		}
	}

	for _, name := range order {
		value := fmt.Sprintf("%d", counters[name])
		if styles != nil {
			value = styles.Amount(value)
		}
		_, _ = fmt.Fprintf(w, "%-*s  %s\n", width, name, value)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		ms := float64(d) / float64(time.Millisecond)
		return fmt.Sprintf("%.0fms", ms)
	}
	s := float64(d) / float64(time.Second)
	return fmt.Sprintf("%.2fs", s)
}
