package dto

// BranchPlacement reports placement progress for one branch.
type BranchPlacement struct {
	Branch        string  `json:"branch"`
	Total         int64   `json:"total"`
	Placed        int64   `json:"placed"`
	PlacementRate float64 `json:"placement_rate"`
}

// PlacementDashboardResponse aggregates account-wide placement statistics.
type PlacementDashboardResponse struct {
	TotalStudents  int64             `json:"total_students"`
	PlacedStudents int64             `json:"placed_students"`
	PlacementRate  float64           `json:"placement_rate"`
	TotalDrives    int64             `json:"total_drives"`
	DrivesByStatus map[string]int64  `json:"drives_by_status"`
	OffersExtended int64             `json:"offers_extended"`
	AverageCTC     float64           `json:"average_ctc"`
	HighestCTC     float64           `json:"highest_ctc"`
	Branches       []BranchPlacement `json:"branches"`
	CacheHit       bool              `json:"-"`
}
