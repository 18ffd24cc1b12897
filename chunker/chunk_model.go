package chunker

// ChunkModel is one contiguous, possibly overlapping slice of a document.
// Page numbers are 1-based inclusive. The first chunk carries no overlap;
// OverlapStart/OverlapEnd are zero there.
type ChunkModel struct {
	Index        int    `json:"index"`
	PageStart    int    `json:"pageStart"`
	PageEnd      int    `json:"pageEnd"`
	OverlapStart int    `json:"overlapStart"`
	OverlapEnd   int    `json:"overlapEnd"`
	Text         string `json:"text"`
	TotalChunks  int    `json:"totalChunks"`
}

// HasOverlap reports whether the chunk shares pages with its predecessor.
func (c ChunkModel) HasOverlap() bool {
	return c.OverlapStart > 0
}
