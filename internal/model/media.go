package model

// UploadMediaEvent is streamed while a file is uploaded. The last event
// carries progress 100 with the location of the file, or an error.
type UploadMediaEvent struct {
	Progress int    `json:"progress"`
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`
	Type     string `json:"type,omitempty"`
}

type DeleteMediaRequest struct {
	PublicID string `json:"public_id"`
	DropID   string `json:"drop_id"`
}

type DeleteMediaResponse struct {
	RemoteDeleted bool `json:"remote_deleted"`
}
