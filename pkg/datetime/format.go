// Package datetime renders wall-clock stamps and recording durations as
// zero-padded strings for the camera UI.
package datetime

import (
	"strconv"
	"time"
)

const (
	millisPerMinute = 60000
	millisPerSecond = 1000
)

// Pad renders v with a leading zero when it is below 10.
// Negative input is not supported.
func Pad(v int) string {
	if v > 9 {
		return strconv.Itoa(v)
	}
	return "0" + strconv.Itoa(v)
}

// FormatClockTime renders t as HHMMSS.
func FormatClockTime(t time.Time) string {
	return Pad(t.Hour()) + Pad(t.Minute()) + Pad(t.Second())
}

// FormatDateStamp renders t as YYYYMMDD. The year is not padded.
func FormatDateStamp(t time.Time) string {
	return strconv.Itoa(t.Year()) + Pad(int(t.Month())) + Pad(t.Day())
}

// FormatElapsed renders a recording duration in milliseconds as "MM : SS".
// Minutes do not roll over into hours. Negative durations render as zero.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / millisPerMinute
	seconds := (ms - minutes*millisPerMinute) / millisPerSecond
	return padInt64(minutes) + " : " + padInt64(seconds)
}

// FormatElapsedDuration is FormatElapsed for a time.Duration.
func FormatElapsedDuration(d time.Duration) string {
	return FormatElapsed(d.Milliseconds())
}

func padInt64(v int64) string {
	if v > 9 {
		return strconv.FormatInt(v, 10)
	}
	return "0" + strconv.FormatInt(v, 10)
}

// Formatter samples a clock when rendering stamps. The zero value uses time.Now.
type Formatter struct {
	Now func() time.Time
}

func (f Formatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// ClockTime renders the current time as HHMMSS.
func (f Formatter) ClockTime() string { return FormatClockTime(f.now()) }

// DateStamp renders the current date as YYYYMMDD.
func (f Formatter) DateStamp() string { return FormatDateStamp(f.now()) }

// Elapsed renders the time since start as "MM : SS".
func (f Formatter) Elapsed(start time.Time) string {
	return FormatElapsedDuration(f.now().Sub(start))
}

// Personal.AI order the ending
