package model

// CountEntry is one bucket of a grouped count. The server uses _id as the
// bucket label.
type CountEntry struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

// Reporter is a user ranked by number of reports.
type Reporter struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Analytics is the dashboard summary.
type Analytics struct {
	TotalIssues      int `json:"totalIssues"`
	ResolvedIssues   int `json:"resolvedIssues"`
	PendingIssues    int `json:"pendingIssues"`
	InProgressIssues int `json:"inProgressIssues"`
	RejectedIssues   int `json:"rejectedIssues"`

	IssuesByCategory   []CountEntry `json:"issuesByCategory"`
	IssuesByPriority   []CountEntry `json:"issuesByPriority"`
	IssuesByStatus     []CountEntry `json:"issuesByStatus"`
	IssuesByDepartment []CountEntry `json:"issuesByDepartment"`
	IssuesByMonth      []CountEntry `json:"issuesByMonth"`

	// AverageResolutionTime is in hours.
	AverageResolutionTime float64 `json:"averageResolutionTime"`

	TopReporters   []Reporter        `json:"topReporters"`
	TopDepartments []DepartmentStats `json:"topDepartments"`
}

// ResolutionRate is resolved over total, or 0 for an empty dashboard.
func (a Analytics) ResolutionRate() float64 {
	if a.TotalIssues == 0 {
		return 0
	}
	return float64(a.ResolvedIssues) / float64(a.TotalIssues)
}
