// Package snapshot holds the sinks that receive periodic generation
// snapshots from an evolve.Driver.
package snapshot

import (
	"context"

	"github.com/jgwall/proj-livia/pkg/evolve"
)

type multiSink []evolve.Sink

// Multi fans an event out to every non-nil sink in order. The first error
// stops the fan-out and is returned.
func Multi(sinks ...evolve.Sink) evolve.Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(ctx context.Context, ev evolve.Event) error {
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
