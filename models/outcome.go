package models

// BranchStatus is the terminal state of one branch pass.
type BranchStatus string

const (
	BranchDone    BranchStatus = "done"
	BranchSkipped BranchStatus = "skipped"
)

// BranchOutcome records what happened to one discovered branch.
type BranchOutcome struct {
	Branch     BranchEndpoint `json:"branch" yaml:"branch"`
	Position   int            `json:"position" yaml:"position"` // discovery order, 0-based
	Title      string         `json:"title,omitempty" yaml:"title,omitempty"`
	Status     BranchStatus   `json:"status" yaml:"status"`
	Reason     string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	StopReason string         `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"` // cap | stall | extent
	Attempts   int            `json:"attempts" yaml:"attempts"`
	Fragments  int            `json:"fragments" yaml:"fragments"`
	Records    int            `json:"records" yaml:"records"`
	Malformed  int            `json:"malformed,omitempty" yaml:"malformed,omitempty"`
	Duplicates int            `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// FragmentStatus classifies one rendered fragment handed to the extractor.
type FragmentStatus string

const (
	FragmentOK        FragmentStatus = "ok"
	FragmentMalformed FragmentStatus = "malformed"
	FragmentDuplicate FragmentStatus = "duplicate"
)

// FragmentOutcome is the per-fragment result variant threaded through extraction.
type FragmentOutcome struct {
	Index  int            `json:"index" yaml:"index"`
	Status FragmentStatus `json:"status" yaml:"status"`
	Reason string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}
