package stream

import "time"

// Event is a message posted by a connection pump to the consumer's owner.
// Every event carries the generation of the connection that produced it.
type Event interface {
	Generation() uint64
}

// Opened reports that the push channel for a generation is open
type Opened struct {
	Gen uint64
}

// Line carries one raw payload received on the push channel
type Line struct {
	Gen uint64
	Raw string
	At  time.Time // client-side capture time
}

// Failed reports a dial error, read error or server-side close
type Failed struct {
	Gen uint64
	Err error
}

func (e Opened) Generation() uint64 { return e.Gen }
func (e Line) Generation() uint64   { return e.Gen }
func (e Failed) Generation() uint64 { return e.Gen }
