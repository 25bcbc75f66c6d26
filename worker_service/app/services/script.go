package services

import (
	"fmt"
	"strings"

	"clipsmith/types"
)

// SynthesizeScript builds the editable script outline for a processed video:
// a title heading followed by one subsection per segment with its time range
// and a placeholder prompt keyed by segment type. Deterministic and total
// over its inputs.
func SynthesizeScript(title string, segments []types.Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	sections := make([]string, 0, len(segments))
	for _, seg := range segments {
		sections = append(sections, fmt.Sprintf(
			"## %s (%ss - %ss)\n[Add your script for this %s section here]\n",
			seg.Title, formatSeconds(seg.Start), formatSeconds(seg.End), seg.Type,
		))
	}
	b.WriteString(strings.Join(sections, "\n"))

	return b.String()
}
