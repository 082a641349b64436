package api

type City struct {
	City string `json:"city"`
	Name string `json:"name,omitempty"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Context struct {
	City      *City     `json:"selectedCity"`
	Date      string    `json:"selectedDate"`
	DateRange DateRange `json:"dateRange"`
}

// ContextUpdate changes only the fields that are present; an empty string clears a field.
type ContextUpdate struct {
	City      *string `json:"city,omitempty"`
	Date      *string `json:"date,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

type Error struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type Link struct {
	URL string `json:"url"`
}
