package coordinator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tinoosan/torrusd/internal/update"
)

// RenderStatusHTML renders a small, fixed-shape debug page showing the
// current status line and the three state-store tiers for every known
// identity. It is meant for an operator debug endpoint, not an end-user
// surface, and every value it interpolates comes from the coordinator's
// own state rather than untrusted input, so plain string assembly is used
// rather than html/template's escaping machinery.
func (c *Coordinator) RenderStatusHTML() string {
	installed, downloaded, available := c.store.Snapshot()

	var b strings.Builder
	b.WriteString("<html><head><title>update coordinator status</title></head><body>\n")
	fmt.Fprintf(&b, "<p><b>status:</b> %s</p>\n", htmlEscape(c.status.GetStatus()))

	ids := make(map[update.Identity]struct{})
	for id := range installed {
		ids[id] = struct{}{}
	}
	for id := range downloaded {
		ids[id] = struct{}{}
	}
	for id := range available {
		ids[id] = struct{}{}
	}

	ordered := make([]update.Identity, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})

	b.WriteString("<table border=\"1\">\n<tr><th>identity</th><th>installed</th><th>downloaded</th><th>available</th><th>checking</th><th>updating</th></tr>\n")
	for _, id := range ordered {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%v</td><td>%v</td></tr>\n",
			htmlEscape(id.String()),
			htmlEscape(string(installed[id])),
			htmlEscape(string(downloaded[id])),
			htmlEscape(formatAvailable(available[id])),
			c.IsCheckInProgress(id),
			c.IsUpdateInProgress(id),
		)
	}
	b.WriteString("</table>\n</body></html>\n")
	return b.String()
}

func formatAvailable(av *update.AvailableVersion) string {
	if av == nil {
		return ""
	}
	return string(av.Version)
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
