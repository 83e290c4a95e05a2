// Package telemetry connects the engine's spans to OpenTelemetry, the
// progress renderer and an optional trace file.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the number of buffered bytes that forces a flush.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the longest time output stays buffered.
	DefaultTimeLimit = 50 * time.Millisecond
)

var errBatchClosed = errors.New("batch processor is closed")

// BatchProcessor collects command output and hands it on in chunks, either
// when sizeLimit bytes are buffered or when timeLimit has passed.
// It is safe for concurrent use.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewBatchProcessor starts a BatchProcessor. Limits of zero or less select
// the defaults. Close must be called to stop its ticker.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		ticker:    time.NewTicker(timeLimit),
		stopCh:    make(chan struct{}),
	}
	go bp.run()
	return bp
}

// Write buffers p, flushing once the size limit is reached.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, errBatchClosed
	}
	n, _ := bp.buffer.Write(p)
	if bp.buffer.Len() >= bp.sizeLimit {
		bp.flushLocked()
		bp.ticker.Reset(bp.timeLimit)
	}
	return n, nil
}

// Flush hands any buffered output to the callback.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if !bp.closed {
		bp.flushLocked()
	}
}

// Close flushes what is left and stops the ticker. Later writes fail.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return nil
	}
	bp.closed = true
	close(bp.stopCh)
	bp.flushLocked()
	return nil
}

func (bp *BatchProcessor) run() {
	for {
		select {
		case <-bp.ticker.C:
			bp.Flush()
		case <-bp.stopCh:
			bp.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held. The callback runs under the lock
// so chunks arrive in write order.
func (bp *BatchProcessor) flushLocked() {
	if bp.buffer.Len() == 0 {
		return
	}
	data := bytes.Clone(bp.buffer.Bytes())
	bp.buffer.Reset()
	if bp.onFlush != nil {
		bp.onFlush(data)
	}
}
