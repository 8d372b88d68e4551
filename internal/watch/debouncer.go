package watch

import (
	"sync"
	"time"
)

// Debouncer delays a callback per key until no new trigger arrived for the
// configured delay
type Debouncer struct {
	mu       sync.Mutex
	timers   map[string]pendingTimer
	callback func(string)
	delay    time.Duration
	gen      uint64
}

// pendingTimer is the live timer of a key. gen tells a replaced timer that
// already fired apart from the current one.
type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer calling callback after delay
func NewDebouncer(delay time.Duration, callback func(string)) *Debouncer {
	return &Debouncer{
		timers:   make(map[string]pendingTimer),
		callback: callback,
		delay:    delay,
	}
}

// Trigger schedules or restarts the timer for key
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pending, ok := d.timers[key]; ok {
		pending.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timers[key] = pendingTimer{
		timer: time.AfterFunc(d.delay, func() { d.fire(key, gen) }),
		gen:   gen,
	}
}

// fire runs the callback unless the timer of generation gen was replaced
// or cancelled while it was waiting for the lock
func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	pending, ok := d.timers[key]
	if !ok || pending.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.mu.Unlock()

	d.callback(key)
}

// Cancel drops the pending timer for key
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pending, ok := d.timers[key]; ok {
		pending.timer.Stop()
		delete(d.timers, key)
	}
}

// Pending reports how many keys are waiting
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending timer
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, pending := range d.timers {
		pending.timer.Stop()
	}
	d.timers = make(map[string]pendingTimer)
}
