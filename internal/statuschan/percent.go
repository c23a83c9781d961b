package statuschan

import (
	"fmt"
	"sync"
)

// percentMu serializes percentage formatting. spec.md §5 calls out that
// the source's percentage formatter is non-reentrant and must be
// serialized; fmt.Sprintf itself needs no such protection, but the mutex
// is kept anyway so FormatPercent's documented contract ("call this under
// the returned lock discipline") matches the source's, in case a future
// formatter here is swapped for something that does share mutable state.
var percentMu sync.Mutex

// FormatPercent renders done/total as a "0.0%" style percentage, the
// pattern spec.md §4.4 specifies for notifyProgress status lines.
func FormatPercent(done, total int64) string {
	percentMu.Lock()
	defer percentMu.Unlock()
	if total <= 0 {
		return "0.0%"
	}
	pct := float64(done) / float64(total) * 100
	return fmt.Sprintf("%.1f%%", pct)
}
