// Package clock supplies the time source for all elapsed-time accounting.
// Transition code reads the clock exactly once per call so the stored
// timestamp and any arithmetic derived from it can never disagree.
package clock

import "time"

// Clock abstracts wall-clock reads for transition and aggregation code.
type Clock interface {
	Now() time.Time
}

// System is the production Clock backed by time.Now.
type System struct{}

func (System) Now() time.Time { return time.Now() }
