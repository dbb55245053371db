package tui

import (
	"sort"
	"time"
)

// Terminals deliver key presses and auto-repeats but never releases. A key
// counts as held until its repeats stop arriving.
const (
	FirstRepeatTimeout = 600 * time.Millisecond
	RepeatTimeout      = 120 * time.Millisecond
)

type watchdog struct {
	first    time.Duration
	repeat   time.Duration
	deadline map[string]time.Time
}

func newWatchdog(first, repeat time.Duration) *watchdog {
	return &watchdog{first: first, repeat: repeat, deadline: map[string]time.Time{}}
}

// press records a press of key at now and reports whether it was an
// auto-repeat of a key already held.
func (w *watchdog) press(key string, now time.Time) bool {
	_, held := w.deadline[key]
	if held {
		w.deadline[key] = now.Add(w.repeat)
	} else {
		w.deadline[key] = now.Add(w.first)
	}
	return held
}

// expired removes and returns the keys whose repeats stopped before now,
// sorted for a stable release order.
func (w *watchdog) expired(now time.Time) []string {
	var keys []string
	for k, d := range w.deadline {
		if !now.Before(d) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		delete(w.deadline, k)
	}
	return keys
}

func (w *watchdog) held() int {
	return len(w.deadline)
}

func (w *watchdog) clear() {
	clear(w.deadline)
}
