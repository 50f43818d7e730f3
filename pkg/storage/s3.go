package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/luckydrop/backend/config"
	"github.com/pkg/errors"
)

type s3Storage struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	cfg      config.S3Configs
}

func NewS3Storage(cfg config.S3Configs) (*s3Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(cfg.SSLDisabled),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create s3 session")
	}

	return &s3Storage{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		cfg:      cfg,
	}, nil
}

func (s *s3Storage) publicURL(key string) string {
	endpoint := strings.TrimSuffix(s.cfg.PublicEndpoint, "/")
	if endpoint == "" {
		endpoint = strings.TrimSuffix(s.cfg.Endpoint, "/")
	}
	return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.Bucket, key)
}

func (s *s3Storage) Upload(ctx context.Context, object *UploadObject) (*UploadResponse, error) {
	var body io.Reader = bytes.NewReader(object.Data)
	if object.Progress != nil {
		body = &progressReader{
			reader:   body,
			total:    int64(len(object.Data)),
			progress: object.Progress,
		}
	}

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(object.Key),
		Body:        body,
		ACL:         aws.String("public-read"),
		ContentType: aws.String(object.Mime),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "upload failed, bucket %s, key %s", s.cfg.Bucket, object.Key)
	}

	return &UploadResponse{Url: s.publicURL(object.Key), Key: object.Key}, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrapf(err, "delete failed, bucket %s, key %s", s.cfg.Bucket, key)
	}

	return nil
}

// progressReader hides ReaderAt/Seeker of the underlying reader so the
// uploader has to consume the body through Read.
type progressReader struct {
	reader   io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.sent += int64(n)
		r.progress(r.sent, r.total)
	}
	return n, err
}
