package constants

// Application constants
const (
	Name        = "livia"
	Version     = "1.0.0"
	Description = "Evolve a population of noise images toward a target image"

	// Default evolution parameters
	DefaultPopSize           = 10
	DefaultSelectionFraction = 0.1
	DefaultMutationRate      = 0.1
	DefaultMutationMean      = 0.0
	DefaultMutationStddev    = 0.01
	DefaultGenerations       = 1000
	DefaultSnapshotInterval  = 100

	// Default image handling
	DefaultMaxPixels = 5000
	DefaultGrayscale = true

	// Pixel scale of the display representation
	MaxPixelValue = 255

	// Storage backends
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	// Directory and file names
	OutputDir        = "livia_output"
	CheckpointDir    = "checkpoints"
	SnapshotPrefix   = "progress"
	FinalImageFile   = "final.png"
	FitnessPlotFile  = "fitness.png"
	LatestCheckpoint = "latest.json"
	DefaultDBFile    = "livia.db"

	// Checkpoint format
	CheckpointVersion = "1.0"

	// Exit codes
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)
