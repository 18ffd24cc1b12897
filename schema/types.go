package schema

// ExtractedRecord is one row of the final output contract. Optional fields
// are pointers so they serialize as JSON null, never as an empty string.
type ExtractedRecord struct {
	ID            int     `json:"id"`
	FirstName     string  `json:"firstName"`
	MiddleName    *string `json:"middleName"`
	LastName      string  `json:"lastName"`
	PersonalTitle *string `json:"personalTitle"`
	JobTitle      *string `json:"jobTitle"`
	DocumentName  string  `json:"documentName"`
	PageNumber    int     `json:"pageNumber"`
	Reason        string  `json:"reason"`
	IsCsm         bool    `json:"isCsm"`
}

// ExtractionResult is the terminal output of a pipeline run.
// An empty run still carries a non-nil, empty ExtractedRecords slice.
type ExtractionResult struct {
	ExtractedRecords []ExtractedRecord `json:"extracted_records"`
}

// ReviewIssue is one finding reported by the critic step.
type ReviewIssue struct {
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	RecordID    *int   `json:"recordId,omitempty"`
	Description string `json:"description"`
	Expected    string `json:"expected,omitempty"`
}

// ReviewResult is the critic step's verdict on the current output.
// Score is in [0.0, 1.0]; the refinement loop exits once it meets the
// configured threshold.
type ReviewResult struct {
	Score   float64       `json:"score"`
	Issues  []ReviewIssue `json:"issues"`
	Summary string        `json:"summary"`
}

// MergeStats describes what a merge did. Informational only; control flow
// never branches on it.
type MergeStats struct {
	RecordsBefore     int `json:"recordsBefore"`
	RecordsAfter      int `json:"recordsAfter"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
	OverlapResolved   int `json:"overlapResolved"`
}
