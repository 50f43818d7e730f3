package model

type SuggestGiftsRequest struct {
	Prompt       string   `json:"prompt"`
	ExcludeNames []string `json:"exclude_names"`
	MaxResults   int      `json:"max_results"`
}

type SuggestGiftsResponse struct {
	Gifts        []SuggestedGift `json:"gifts"`
	Query        string          `json:"query"`
	TotalResults int             `json:"total_results"`
}
