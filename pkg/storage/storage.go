package storage

import "context"

type Storage interface {
	Upload(context.Context, *UploadObject) (*UploadResponse, error)
	Delete(ctx context.Context, key string) error
}

// ProgressFunc receives the number of bytes consumed so far and the total.
type ProgressFunc func(sent, total int64)

type UploadObject struct {
	Key      string
	Mime     string
	Data     []byte
	Progress ProgressFunc
}

type UploadResponse struct {
	Url string
	Key string
}
