package types

// MatchResult is the structured score/justification/suggestions triple derived
// from one completion response.
//
// Score is 0 both when no score was found and when the model reported zero;
// callers cannot tell the two apart.
type MatchResult struct {
	Score         int      `json:"match_score"`
	Justification string   `json:"justification"`
	Suggestions   []string `json:"suggestions"`
}

// ResearchSource is one external page used as context for company research.
type ResearchSource struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}
