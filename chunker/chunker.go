package chunker

import (
	"fmt"
	"math"
	"strings"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// wordsPerToken is the whitespace-word heuristic used by NeedsChunking.
// It deliberately over-estimates token counts: unnecessary chunking is
// acceptable, overflowing a downstream input limit is not.
const wordsPerToken = 0.75

type Chunker struct{}

func ProvideChunker() *Chunker {
	return &Chunker{}
}

// Chunk splits text into page-aligned windows of pagesPerChunk pages,
// sliding by pagesPerChunk-overlapPages. Every chunk after the first records
// the page range it shares with its predecessor as its overlap zone. The
// final window is clipped to the last page.
func (c *Chunker) Chunk(text string, pagesPerChunk, overlapPages int, pageDelimiter string) ([]ChunkModel, error) {
	if pagesPerChunk < 2 {
		return nil, fmt.Errorf("%w: pagesPerChunk must be >= 2, got %d", internalerr.ErrConfiguration, pagesPerChunk)
	}
	if overlapPages < 0 {
		return nil, fmt.Errorf("%w: overlapPages must be >= 0, got %d", internalerr.ErrConfiguration, overlapPages)
	}
	if overlapPages >= pagesPerChunk {
		return nil, fmt.Errorf("%w: overlapPages (%d) must be < pagesPerChunk (%d)", internalerr.ErrConfiguration, overlapPages, pagesPerChunk)
	}
	if pageDelimiter == "" {
		return nil, fmt.Errorf("%w: pageDelimiter must not be empty", internalerr.ErrConfiguration)
	}

	pages := splitPages(text, pageDelimiter)
	total := len(pages)

	if total <= pagesPerChunk {
		return []ChunkModel{{
			Index:       0,
			PageStart:   1,
			PageEnd:     total,
			Text:        strings.Join(pages, pageDelimiter),
			TotalChunks: 1,
		}}, nil
	}

	stride := pagesPerChunk - overlapPages
	var out []ChunkModel
	for start := 0; start < total; start += stride {
		end := min(start+pagesPerChunk, total)

		chunk := ChunkModel{
			Index:     len(out),
			PageStart: start + 1,
			PageEnd:   end,
			Text:      strings.Join(pages[start:end], pageDelimiter),
		}
		if start > 0 && overlapPages > 0 {
			// Pages shared with the predecessor window.
			chunk.OverlapStart = start + 1
			chunk.OverlapEnd = start + overlapPages
		}
		out = append(out, chunk)

		if end == total {
			break
		}
	}

	for i := range out {
		out[i].TotalChunks = len(out)
	}

	logger.Info("Chunked document",
		zap.Int("pages", total),
		zap.Int("chunks", len(out)),
		zap.Int("pagesPerChunk", pagesPerChunk),
		zap.Int("overlapPages", overlapPages))

	return out, nil
}

// NeedsChunking estimates the token count of text and reports whether it
// exceeds tokenBudget. The estimate is conservative (see wordsPerToken).
func (c *Chunker) NeedsChunking(text string, tokenBudget int) bool {
	return EstimateTokens(text) > tokenBudget
}

// EstimateTokens approximates tokens as ceil(words / 0.75).
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) / wordsPerToken))
}

func splitPages(text, delimiter string) []string {
	raw := strings.Split(text, delimiter)
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}
