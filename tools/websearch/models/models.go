package models

// Result is one normalized search hit. Fields are copied verbatim from the
// provider response and never mutated downstream.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}
