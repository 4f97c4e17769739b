package models

// SimilarWord is a single nearest-neighbour hit.
type SimilarWord struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// SimilarResponse is the response for a nearest-neighbour lookup.
type SimilarResponse struct {
	Word    string         `json:"word"`
	Known   bool           `json:"known"`
	Results []*SimilarWord `json:"results"`
	// Suggestions holds close vocabulary spellings when Word is not in the vocabulary.
	Suggestions []string `json:"suggestions,omitempty"`
	QueryTime   int64    `json:"query_time_ms"`
}
