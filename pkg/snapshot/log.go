package snapshot

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jgwall/proj-livia/pkg/evolve"
)

// LogSink reports progress at each snapshot generation
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink creates a progress sink writing to logger, or to a fresh
// logrus logger when logger is nil
func NewLogSink(logger *logrus.Logger) *LogSink {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogSink{logger: logger}
}

// Emit logs the average fitness of the snapshot generation
func (s *LogSink) Emit(_ context.Context, ev evolve.Event) error {
	s.logger.WithFields(logrus.Fields{
		"run":         ev.RunID,
		"generation":  ev.Generation,
		"avg_fitness": ev.State.MeanFitness(),
	}).Infof("Generation %d: average population fitness is %.6f", ev.Generation, ev.State.MeanFitness())

	s.logger.WithFields(logrus.Fields{
		"generation": ev.Generation,
		"shape":      ev.AverageImage.Shape,
	}).Debug("Current average image")

	return nil
}
