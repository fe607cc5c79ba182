package sdspi

import "time"

// SystemClock is a Clock backed by time.Now, suitable for any hosted
// target (the common case for this driver, which talks to the card
// through a USB-SPI adapter or a host SPI peripheral rather than running
// bare-metal).
type SystemClock struct{ start time.Time }

// NewSystemClock returns a SystemClock anchored to the current time.
func NewSystemClock() *SystemClock { return &SystemClock{start: time.Now()} }

func (c *SystemClock) NowMillis() int64 { return time.Since(c.start).Milliseconds() }
