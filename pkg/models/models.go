package models

// Record is one row of the normalized cutoff table
type Record struct {
	Institute   string
	Branch      string
	SeatType    string
	Gender      string
	OpeningRank int
	ClosingRank int
	Category    string // source partition the row was loaded from
}

// Preference selects how the eligible set is restricted and ordered.
// It is implemented by ExplicitList and DefaultOrder only.
type Preference interface {
	isPreference()
}

// ExplicitList keeps only the listed branches
type ExplicitList struct {
	Branches []string
}

// DefaultOrder groups priority branches ahead of everything else
type DefaultOrder struct{}

func (ExplicitList) isPreference() {}
func (DefaultOrder) isPreference() {}

// Criteria is built from user input for a single query
type Criteria struct {
	Rank               int
	SeatType           string
	Gender             string
	Preference         Preference
	IncludeFiveYear    bool
	RestrictMainstream bool
}

// Result is a Record annotated for display
type Result struct {
	Record
	RankDifference int
	Highlight      bool
}

// CollegeCategory names a family of institutes with its own source files
type CollegeCategory string

const (
	IIT  CollegeCategory = "IIT"
	NIT  CollegeCategory = "NIT"
	IIIT CollegeCategory = "IIIT"
)

// NameCount is a label with its occurrence count
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// InstituteShare is the fraction of results belonging to one institute
type InstituteShare struct {
	Institute string  `json:"institute"`
	Count     int     `json:"count"`
	Share     float64 `json:"share"`
}

// Summary holds the aggregates charting consumers need
type Summary struct {
	Total           int              `json:"total"`
	InstituteCounts []NameCount      `json:"institute_counts"`
	BranchCounts    []NameCount      `json:"branch_counts"`
	InstituteShares []InstituteShare `json:"institute_shares"`
}
