package model

type GiftInput struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Platform    string `json:"platform"`
	URL         string `json:"url"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

type CreateDropRequest struct {
	Title            string      `json:"title"`
	Message          string      `json:"message"`
	Gifts            []GiftInput `json:"gifts"`
	DistributionMode string      `json:"distribution_mode"`
	GifterMedia      []Media     `json:"gifter_media"`
}

type CreateDropResponse struct {
	ID       string `json:"id"`
	ShareURL string `json:"share_url"`
}

type GetDropRequest struct {
	ID string `json:"id"`
}

type GetDropResponse struct {
	Drop          Drop   `json:"drop"`
	Stage         string `json:"stage"`
	RevealDelayMs int64  `json:"reveal_delay_ms"`
}

type GetMyDropsRequest struct{}

type GetMyDropsResponse struct {
	Drops []Drop `json:"drops"`
}

// UpdateDropRequest replaces the fields which are present. Empty strings and
// nil lists keep the current value, an empty list of media removes all media.
type UpdateDropRequest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Gifts       []GiftInput `json:"gifts"`
	GifterMedia []Media     `json:"gifter_media"`
}

type UpdateDropResponse struct {
	Drop Drop `json:"drop"`
}

type OpenDropRequest struct {
	ID string `json:"id"`
}

type OpenDropResponse struct {
	Stage string `json:"stage"`
}

type CompleteMediaRequest struct {
	ID string `json:"id"`
}

type CompleteMediaResponse struct {
	Stage string `json:"stage"`
}

type SelectGiftRequest struct {
	ID     string `json:"id"`
	GiftID string `json:"gift_id"`
}

type SelectGiftResponse struct {
	Gift          Gift   `json:"gift"`
	Stage         string `json:"stage"`
	RevealDelayMs int64  `json:"reveal_delay_ms"`
}

type RevealGiftRequest struct {
	ID string `json:"id"`
}

type RevealGiftResponse struct {
	Gift          Gift   `json:"gift"`
	Stage         string `json:"stage"`
	RevealDelayMs int64  `json:"reveal_delay_ms"`
}

type ClaimGiftRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ClaimGiftResponse struct {
	Stage string `json:"stage"`
}

type GenerateThankYouRequest struct {
	ID string `json:"id"`
}

type GenerateThankYouResponse struct {
	Message   string `json:"message"`
	MediaType string `json:"media_type"`
}

type GetShareRequest struct {
	ID string `json:"id"`
}

type GetShareResponse struct {
	URL    string `json:"url"`
	QRCode string `json:"qr_code"`
}
