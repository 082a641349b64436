package domain

// Stats is the aggregate block returned by the report API next to the records.
type Stats map[string]any

// FlagSummary counts how many records pass a tracked correctness flag.
type FlagSummary struct {
	Flag   string
	Passed int
	Rate   float64 // percentage of records where the flag is true
}

// Summary is computed locally over the displayed records.
type Summary struct {
	Total   int
	Failing int
	Flags   []FlagSummary
}

// GroupStat is one row of an upstream breakdown, such as the incorrect
// reports of a collection plan.
type GroupStat struct {
	Name      string
	Incorrect int
	Total     int
}

// ReportView is the rendered state of a single report for a given context.
type ReportView struct {
	Report  string
	Title   string
	Context Snapshot
	Params  map[string]string
	Total   int
	Records []Record
	// CallLinks holds the tel: links of each record, index aligned with Records.
	CallLinks []map[string]string
	Stats     Stats
	Summary   Summary
	Groups    []GroupStat
	Location  string
	ShareURL  string
	// Err is the fetch error the view is showing, if any.
	Err error
}

// ReportType is an entry of the upstream report type catalog.
type ReportType struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Route string `json:"route,omitempty"`
}
