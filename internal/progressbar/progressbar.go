// Package progressbar renders an in-place terminal progress bar and doubles
// as the Progress implementation the reassembler (§4.L) and the MBTiles
// builder (§4.M) poll for cancellation after every tile. Beyond ticking a
// counter for its own render loop, it exposes a Cancel/Cancelled pair so a
// host can wire it to e.g. an interrupt signal and have the cooperative
// cancellation policy (§5) actually trigger.
package progressbar

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bar renders a labeled progress bar and satisfies the Tick()/Cancelled()
// contract shared by internal/reassemble.Progress and internal/mbtiles.Progress.
type Bar struct {
	total     int64
	processed atomic.Int64
	cancelled atomic.Bool
	label     string
	barWidth  int
	start     time.Time
	done      chan struct{}
	mu        sync.Mutex
}

// New starts a bar labeled label, refreshing every 100ms until Finish.
func New(label string, total int64) *Bar {
	b := &Bar{
		total:    total,
		label:    label,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Tick marks one more item processed. Safe for concurrent use by multiple
// workers.
func (b *Bar) Tick() {
	b.processed.Add(1)
}

// Cancel marks the bar cancelled; subsequent Cancelled() calls return true.
func (b *Bar) Cancel() {
	b.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (b *Bar) Cancelled() bool {
	return b.cancelled.Load()
}

// Finish stops the refresh loop and prints the final bar state with a
// trailing newline.
func (b *Bar) Finish() {
	close(b.done)
	b.draw()
	fmt.Fprint(os.Stderr, "\n")
}

func (b *Bar) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.draw()
		}
	}
}

func (b *Bar) draw() {
	b.mu.Lock()
	defer b.mu.Unlock()

	processed := b.processed.Load()
	total := b.total

	var frac float64
	if total > 0 {
		frac = float64(processed) / float64(total)
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(float64(b.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.barWidth-filled)

	elapsed := time.Since(b.start)
	rate := float64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}

	fmt.Fprintf(os.Stderr, "\r%s [%s] %3.0f%%  %d/%d tiles  %.0f/s  %s\033[K",
		b.label, bar, frac*100, processed, total, rate, formatDuration(elapsed))
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
