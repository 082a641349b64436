package api

type Report struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Route       string   `json:"route"`
	DefaultDate string   `json:"default_date"`
	LocalParams []string `json:"local_params"`
}

type ReportType struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Route string `json:"route,omitempty"`
}

type Record struct {
	Data      map[string]any    `json:"data"`
	CallLinks map[string]string `json:"call_links,omitempty"`
}

type FlagSummary struct {
	Flag   string  `json:"flag"`
	Passed int     `json:"passed"`
	Rate   float64 `json:"rate"`
}

type Summary struct {
	Total   int           `json:"total"`
	Failing int           `json:"failing"`
	Flags   []FlagSummary `json:"flags"`
}

type GroupStat struct {
	Name      string `json:"name"`
	Incorrect int    `json:"incorrect"`
	Total     int    `json:"total"`
}

type ReportView struct {
	Report   string            `json:"report"`
	Title    string            `json:"title"`
	Context  Context           `json:"context"`
	Params   map[string]string `json:"params"`
	Total    int               `json:"total"`
	Count    int               `json:"count"`
	Records  []Record          `json:"records"`
	Stats    map[string]any    `json:"stats"`
	Summary  Summary           `json:"summary"`
	Groups   []GroupStat       `json:"groups,omitempty"`
	Location string            `json:"location"`
	ShareURL string            `json:"share_url"`
	Error    *Error            `json:"error,omitempty"`
}
