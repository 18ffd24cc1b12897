package pipeline

import (
	"fmt"

	"github.com/SaiNageswarS/extract-boot/internalerr"
)

// Config carries the run-shaping knobs of a pipeline. Invalid values fail
// the run at assembly, before any step executes.
type Config struct {
	ChunkingEnabled bool
	TokenBudget     int    // estimated-token threshold that routes to the chunked path
	PagesPerChunk   int    // window width in pages
	OverlapPages    int    // pages shared between adjacent chunks
	PageDelimiter   string // page boundary marker in document text

	BatchingEnabled bool
	BatchSize       int // max records per reduce batch

	MaxRefinementIterations int
	QualityThreshold        float64

	// MapConcurrency bounds parallel chunk execution in the map phase.
	// Values <= 1 run chunks sequentially. Each concurrent chunk works on
	// its own state clone; the shared state is never mutated concurrently.
	MapConcurrency int

	// IdentityFields build the identity key for overlap-zone duplicate
	// resolution.
	IdentityFields []string
}

// DefaultConfig returns production defaults for person extraction.
func DefaultConfig() Config {
	return Config{
		ChunkingEnabled:         true,
		TokenBudget:             60000,
		PagesPerChunk:           20,
		OverlapPages:            5,
		PageDelimiter:           "\f",
		BatchingEnabled:         true,
		BatchSize:               50,
		MaxRefinementIterations: 3,
		QualityThreshold:        0.85,
		MapConcurrency:          1,
		IdentityFields:          []string{"firstName", "lastName"},
	}
}

func (c Config) validate() error {
	if c.ChunkingEnabled {
		if c.TokenBudget < 1 {
			return fmt.Errorf("%w: tokenBudget must be >= 1, got %d", internalerr.ErrConfiguration, c.TokenBudget)
		}
		if c.PagesPerChunk < 2 {
			return fmt.Errorf("%w: pagesPerChunk must be >= 2, got %d", internalerr.ErrConfiguration, c.PagesPerChunk)
		}
		if c.OverlapPages < 0 || c.OverlapPages >= c.PagesPerChunk {
			return fmt.Errorf("%w: overlapPages must be in [0, pagesPerChunk), got %d", internalerr.ErrConfiguration, c.OverlapPages)
		}
		if c.PageDelimiter == "" {
			return fmt.Errorf("%w: pageDelimiter must not be empty", internalerr.ErrConfiguration)
		}
	}
	if c.BatchingEnabled && c.BatchSize < 1 {
		return fmt.Errorf("%w: batchSize must be >= 1, got %d", internalerr.ErrConfiguration, c.BatchSize)
	}
	if c.MaxRefinementIterations < 0 {
		return fmt.Errorf("%w: maxRefinementIterations must be >= 0, got %d", internalerr.ErrConfiguration, c.MaxRefinementIterations)
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("%w: qualityThreshold must be in [0.0, 1.0], got %f", internalerr.ErrConfiguration, c.QualityThreshold)
	}
	return nil
}
