package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jgwall/proj-livia/internal/constants"
	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/evolve"
)

// Manager handles configuration loading and validation
type Manager struct {
	config *types.Config
	path   string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: getDefaultConfig(),
	}
}

// Load loads configuration from a file
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := getDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := m.validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	m.path = path
	return nil
}

// LoadDefaults applies environment overrides to the built-in defaults, for
// runs started without a config file
func (m *Manager) LoadDefaults() error {
	config := getDefaultConfig()
	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := m.validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	m.config = config
	m.path = ""
	return nil
}

// Save saves configuration to a file
func (m *Manager) Save(path string) error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *types.Config {
	return m.config
}

// SetConfig updates the configuration
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetPath returns the configuration file path
func (m *Manager) GetPath() string {
	return m.path
}

// Validate checks the current configuration and fills derived paths
func (m *Manager) Validate() error {
	return m.validate(m.config)
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (m *Manager) applyEnvOverrides(config *types.Config) error {
	if v := os.Getenv("LIVIA_POPSIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIVIA_POPSIZE %q: %w", v, err)
		}
		config.Evolution.PopSize = n
	}
	if v := os.Getenv("LIVIA_GENERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIVIA_GENERATIONS %q: %w", v, err)
		}
		config.Evolution.Generations = n
	}
	if v := os.Getenv("LIVIA_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LIVIA_SEED %q: %w", v, err)
		}
		config.Evolution.Seed = &n
	}

	floatVars := []struct {
		name   string
		target *float64
	}{
		{"LIVIA_SELECTION", &config.Evolution.SelectionFraction},
		{"LIVIA_MUTATION_RATE", &config.Evolution.MutationRate},
		{"LIVIA_MUTATION_STDDEV", &config.Evolution.MutationStddev},
	}
	for _, fv := range floatVars {
		v := os.Getenv(fv.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", fv.name, v, err)
		}
		*fv.target = f
	}

	if outputDir := os.Getenv("LIVIA_OUTPUT_DIR"); outputDir != "" {
		config.Output.Dir = outputDir
		// derived paths follow the new directory
		config.Output.ImagePath = ""
		config.Output.PlotPath = ""
		config.Snapshot.OutputPrefix = ""
		config.Storage.SQLitePath = ""
	}
	if store := os.Getenv("LIVIA_STORE"); store != "" {
		config.Storage.Backend = strings.ToLower(store)
	}
	if verbose := os.Getenv("LIVIA_VERBOSE"); verbose != "" {
		config.Snapshot.Verbose = strings.ToLower(verbose) == "true"
	}

	return nil
}

// validate validates the configuration
func (m *Manager) validate(config *types.Config) error {
	if err := evolve.ValidateConfig(config.Evolution); err != nil {
		return err
	}

	if config.Image.MaxPixels < 0 {
		return fmt.Errorf("max pixels must not be negative")
	}

	switch config.Storage.Backend {
	case "":
		config.Storage.Backend = constants.StoreMemory
	case constants.StoreMemory, constants.StoreSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	// Validate paths
	if config.Output.Dir == "" {
		config.Output.Dir = constants.OutputDir
	}
	if config.Output.ImagePath == "" {
		config.Output.ImagePath = filepath.Join(config.Output.Dir, constants.FinalImageFile)
	}
	if config.Output.PlotPath == "" {
		config.Output.PlotPath = filepath.Join(config.Output.Dir, constants.FitnessPlotFile)
	}
	if config.Snapshot.OutputPrefix == "" {
		config.Snapshot.OutputPrefix = filepath.Join(config.Output.Dir, constants.CheckpointDir, constants.SnapshotPrefix)
	}
	if config.Storage.SQLitePath == "" {
		config.Storage.SQLitePath = filepath.Join(config.Output.Dir, constants.DefaultDBFile)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *types.Config {
	return &types.Config{
		Evolution: types.EvolutionConfig{
			PopSize:           constants.DefaultPopSize,
			SelectionFraction: constants.DefaultSelectionFraction,
			MutationRate:      constants.DefaultMutationRate,
			MutationMean:      constants.DefaultMutationMean,
			MutationStddev:    constants.DefaultMutationStddev,
			Generations:       constants.DefaultGenerations,
			SnapshotInterval:  constants.DefaultSnapshotInterval,
		},
		Snapshot: types.SnapshotConfig{
			Verbose:      false,
			WriteFiles:   true,
			OutputPrefix: filepath.Join(constants.OutputDir, constants.CheckpointDir, constants.SnapshotPrefix),
			PersistRuns:  true,
		},
		Image: types.ImageConfig{
			Grayscale: constants.DefaultGrayscale,
			MaxPixels: constants.DefaultMaxPixels,
		},
		Storage: types.StorageConfig{
			Backend:    constants.StoreSQLite,
			SQLitePath: filepath.Join(constants.OutputDir, constants.DefaultDBFile),
		},
		Output: types.OutputConfig{
			Dir:       constants.OutputDir,
			ImagePath: filepath.Join(constants.OutputDir, constants.FinalImageFile),
			PlotPath:  filepath.Join(constants.OutputDir, constants.FitnessPlotFile),
			PlotTitle: "Average population fitness",
		},
	}
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig(path string) error {
	manager := NewManager()
	return manager.Save(path)
}
