package types

import (
	"time"
)

// Config represents the main configuration
type Config struct {
	Evolution EvolutionConfig `yaml:"evolution" json:"evolution"`
	Snapshot  SnapshotConfig  `yaml:"snapshot" json:"snapshot"`
	Image     ImageConfig     `yaml:"image" json:"image"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// EvolutionConfig holds the parameters of a single evolution run
type EvolutionConfig struct {
	PopSize           int     `yaml:"popsize" json:"popsize"`
	SelectionFraction float64 `yaml:"selection_fraction" json:"selection_fraction"`
	MutationRate      float64 `yaml:"mutation_rate" json:"mutation_rate"`
	MutationMean      float64 `yaml:"mutation_mean" json:"mutation_mean"`
	MutationStddev    float64 `yaml:"mutation_stddev" json:"mutation_stddev"`
	Generations       int     `yaml:"generations" json:"generations"`
	SnapshotInterval  int     `yaml:"snapshot_interval" json:"snapshot_interval"`
	Seed              *int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	Workers           int     `yaml:"workers" json:"workers"`
}

// SnapshotConfig controls periodic output during a run
type SnapshotConfig struct {
	Verbose      bool   `yaml:"verbose" json:"verbose"`
	WriteFiles   bool   `yaml:"write_files" json:"write_files"`
	OutputPrefix string `yaml:"output_prefix" json:"output_prefix"`
	PersistRuns  bool   `yaml:"persist_runs" json:"persist_runs"`
}

// ImageConfig describes how the target image is prepared
type ImageConfig struct {
	Path      string `yaml:"path" json:"path"`
	Grayscale bool   `yaml:"grayscale" json:"grayscale"`
	MaxPixels int    `yaml:"max_pixels" json:"max_pixels"`
}

// StorageConfig selects the run store backend
type StorageConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

// OutputConfig names the final artifacts of a run
type OutputConfig struct {
	Dir       string `yaml:"dir" json:"dir"`
	ImagePath string `yaml:"image_path" json:"image_path"`
	PlotPath  string `yaml:"plot_path" json:"plot_path"`
	PlotTitle string `yaml:"plot_title" json:"plot_title"`
}

// Checkpoint represents a saved generation state of a run
type Checkpoint struct {
	Version        string          `json:"version"`
	RunID          string          `json:"run_id"`
	CreatedAt      time.Time       `json:"created_at"`
	Generation     int             `json:"generation"`
	Shape          []int           `json:"shape"`
	Population     [][]float64     `json:"population"`
	Fitness        []float64       `json:"fitness"`
	FitnessHistory []float64       `json:"fitness_history"`
	AverageImage   []float64       `json:"average_image"`
	Config         EvolutionConfig `json:"config"`
}

// RunRecord summarizes a finished or in-progress run
type RunRecord struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Seed         int64           `json:"seed"`
	Generation   int             `json:"generation"`
	FinalFitness float64         `json:"final_fitness"`
	Target       string          `json:"target"`
	Config       EvolutionConfig `json:"config"`
}

// RunStats tracks timing and fitness statistics of a run
type RunStats struct {
	Generations  int           `json:"generations"`
	Evaluations  int64         `json:"evaluations"`
	StartFitness float64       `json:"start_fitness"`
	FinalFitness float64       `json:"final_fitness"`
	Duration     time.Duration `json:"duration"`
	StartTime    time.Time     `json:"start_time"`
}
