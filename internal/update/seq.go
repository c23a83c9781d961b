package update

import "sync"

var (
	seqMu      sync.Mutex
	seqCounter uint64
)
