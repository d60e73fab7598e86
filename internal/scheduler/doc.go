// Package scheduler runs the periodic update check for ttcsync.
// It is a single-goroutine loop: every tick it compares the time since the
// last successful update with the configured interval and fires the update
// trigger when the interval has been exceeded. Ticks are handled strictly in
// order, and a tick never waits for the update it triggered.
package scheduler
