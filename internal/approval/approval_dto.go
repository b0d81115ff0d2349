package approval

type DecisionRequest struct {
	Comment *string `json:"comment"`
}

type ProgressResponse struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
