package models

// Issue is the structured content returned by an issue fetcher.
type Issue struct {
	Owner    string         `json:"owner"`
	Repo     string         `json:"repo"`
	Number   int            `json:"number"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	State    string         `json:"state"`
	Labels   []string       `json:"labels"`
	Comments []IssueComment `json:"comments"`
}
