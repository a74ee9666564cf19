package uart

import (
	"sync"

	"rvboard/core"
)

// NewDebugWriter returns a core.DebugWriter printing "[level] msg" lines on p.
// The writer becomes the owner of p and may be shared by several tasks: each
// line is written whole, and a task logging while another is mid-line waits
// for it. Writes block until the transmit FIFO has room, so the writer must
// not be used from interrupt context.
func NewDebugWriter(p *Port, level string) core.DebugWriter {
	prefix := []byte("[" + level + "] ")
	var mu sync.Mutex
	return func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		p.BlockingWrite(prefix)
		p.BlockingWrite([]byte(msg))
		p.BlockingWrite([]byte{'\r', '\n'})
	}
}
