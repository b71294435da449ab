package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoHistory is returned when there is nothing to report on
var ErrNoHistory = errors.New("empty fitness history")

// Summary describes a fitness history in a few numbers
type Summary struct {
	Generations    int
	StartFitness   float64
	FinalFitness   float64
	BestFitness    float64
	BestGeneration int
	Improvement    float64
}

// Summarize reduces a fitness history to its headline values
func Summarize(history []float64) (Summary, error) {
	if len(history) == 0 {
		return Summary{}, ErrNoHistory
	}
	best := floats.MaxIdx(history)
	return Summary{
		Generations:    len(history) - 1,
		StartFitness:   history[0],
		FinalFitness:   history[len(history)-1],
		BestFitness:    history[best],
		BestGeneration: best,
		Improvement:    history[len(history)-1] - history[0],
	}, nil
}

// PlotFitness draws average population fitness against generation and
// saves the plot to path. The format follows the file extension.
func PlotFitness(history []float64, title, path string) error {
	if len(history) == 0 {
		return ErrNoHistory
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Average fitness"

	pts := make(plotter.XYs, len(history))
	for i, f := range history {
		pts[i].X = float64(i)
		pts[i].Y = f
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build fitness line: %w", err)
	}
	p.Add(line, plotter.NewGrid())

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save fitness plot: %w", err)
	}
	return nil
}
