package model

type AccessToken struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Gift struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Platform    string `json:"platform,omitempty"`
	URL         string `json:"url,omitempty"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

type Media struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	PublicID string `json:"public_id,omitempty"`
}

type RecipientDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Drop struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Title             string            `json:"title"`
	Message           string            `json:"message"`
	Gifts             []Gift            `json:"gifts"`
	DistributionMode  string            `json:"distribution_mode"`
	GifterMedia       []Media           `json:"gifter_media"`
	Status            string            `json:"status"`
	SelectedGiftID    string            `json:"selected_gift_id,omitempty"`
	RecipientDetails  *RecipientDetails `json:"recipient_details,omitempty"`
	RecipientOpenedAt string            `json:"recipient_opened_at,omitempty"`
	CreatedAt         string            `json:"created_at"`
}

type SuggestedGift struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Platform    string `json:"platform"`
	URL         string `json:"url"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

// DropEvent is published on every change of a drop lifecycle.
type DropEvent struct {
	Type   string `json:"type"`
	DropID string `json:"drop_id"`
	UserID string `json:"user_id"`
	GiftID string `json:"gift_id,omitempty"`
	At     string `json:"at"`
}
