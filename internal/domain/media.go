package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/luckydrop/backend/internal/common"
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/router"
	"github.com/luckydrop/backend/pkg/storage"
	"github.com/luckydrop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	mediaFormKey = "file"

	// Room for the multipart boundaries and headers around the file.
	multipartOverhead = 1 << 20
)

type MediaDomain interface {
	Upload(context.Context, router.EmitFunc) error
	Delete(context.Context, *model.DeleteMediaRequest) (*model.DeleteMediaResponse, error)
}

type mediaDomain struct {
	dropRepo repository.DropRepository
	storage  storage.Storage
}

func NewMediaDomain(dropRepo repository.DropRepository, storage storage.Storage) MediaDomain {
	return &mediaDomain{dropRepo: dropRepo, storage: storage}
}

// InferMediaType maps the declared content type of a file to a media type.
func InferMediaType(mime string) (entity.MediaType, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return entity.CardMedia, true
	case strings.HasPrefix(mime, "audio/"):
		return entity.AudioMedia, true
	case strings.HasPrefix(mime, "video/"):
		return entity.VideoMedia, true
	default:
		return "", false
	}
}

// Upload reads the multipart file of the request and streams the upload
// progress to emit. Progress values only increase, 100 is sent once with the
// location of the file.
func (d *mediaDomain) Upload(ctx context.Context, emit router.EmitFunc) error {
	userID := xcontext.RequestUserID(ctx)
	cfg := xcontext.Configs(ctx).File
	maxBytes := int64(cfg.MaxSize) << 20

	req := xcontext.HTTPRequest(ctx)
	req.Body = http.MaxBytesReader(xcontext.ResponseWriter(ctx), req.Body, maxBytes+multipartOverhead)
	if err := req.ParseMultipartForm(maxBytes); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot parse multipart form: %v", err)
		return errorx.New(errorx.BadRequest, "Request must be a multipart form of at most %d MB", cfg.MaxSize)
	}

	file, header, err := req.FormFile(mediaFormKey)
	if err != nil {
		return errorx.New(errorx.BadRequest, "Error retrieving the file")
	}
	defer file.Close()

	mime := header.Header.Get("Content-Type")
	mediaType, ok := InferMediaType(mime)
	if !ok {
		return errorx.New(errorx.BadRequest, "Unsupported file type %s", mime)
	}

	if header.Size > maxBytes {
		return errorx.New(errorx.BadRequest, "File too large (at most %d MB)", cfg.MaxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read the uploaded file: %v", err)
		return errorx.Unknown
	}

	if mediaType == entity.CardMedia {
		resized, changed, err := common.DownscaleImage(mime, data, cfg.MaxImageDimension)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot downscale image, keep the original: %v", err)
		} else if changed {
			data = resized
		}
	}

	key := fmt.Sprintf("%s%d-%s%s",
		mediaNamespace(userID), time.Now().UnixMilli(), uuid.NewString(),
		strings.ToLower(filepath.Ext(header.Filename)))

	progress := newProgressEmitter(ctx, emit)
	progress.send(0)

	resp, err := d.storage.Upload(ctx, &storage.UploadObject{
		Key:  key,
		Mime: mime,
		Data: data,
		Progress: func(sent, total int64) {
			if total > 0 {
				progress.send(int(sent * 100 / total))
			}
		},
	})
	if err != nil {
		common.PromCounters[common.UpstreamFailureTotal].WithLabelValues("storage").Inc()
		xcontext.Logger(ctx).Errorf("Cannot upload media: %v", err)
		return errorx.New(errorx.Unavailable, "Cannot upload the file, please try again")
	}

	common.PromCounters[common.UploadBytesTotal].
		WithLabelValues(string(mediaType)).Add(float64(len(data)))

	return emit(model.UploadMediaEvent{
		Progress: 100,
		URL:      resp.Url,
		PublicID: resp.Key,
		Type:     string(mediaType),
	})
}

// Delete removes an uploaded file. The remote deletion is best effort, the
// media is removed from the drop even if it fails.
func (d *mediaDomain) Delete(
	ctx context.Context, req *model.DeleteMediaRequest,
) (*model.DeleteMediaResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if req.PublicID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty public id")
	}

	if !strings.HasPrefix(req.PublicID, mediaNamespace(userID)) || strings.Contains(req.PublicID, "..") {
		return nil, errorx.New(errorx.PermissionDenied, "This media does not belong to you")
	}

	var drop *entity.GiftDrop
	if req.DropID != "" {
		var err error
		drop, err = getDrop(ctx, d.dropRepo, req.DropID)
		if err != nil {
			return nil, err
		}

		if drop.UserID != userID {
			return nil, errorx.New(errorx.PermissionDenied, "Only the owner can edit this drop")
		}

		if drop.IsOpened() {
			return nil, errorx.New(errorx.DropOpened, "The recipient has already opened this drop")
		}
	}

	remoteDeleted := true
	if err := d.storage.Delete(ctx, req.PublicID); err != nil {
		common.PromCounters[common.UpstreamFailureTotal].WithLabelValues("storage").Inc()
		xcontext.Logger(ctx).Warnf("Cannot delete media %s: %v", req.PublicID, err)
		remoteDeleted = false
	}

	if drop != nil {
		media := entity.MediaList{}
		for _, m := range drop.GifterMedia {
			if m.PublicID != req.PublicID {
				media = append(media, m)
			}
		}

		err := d.dropRepo.Update(ctx, drop.ID, userID, &entity.GiftDrop{GifterMedia: media})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.DropOpened, "The recipient has already opened this drop")
			}

			xcontext.Logger(ctx).Errorf("Cannot remove media from drop: %v", err)
			return nil, errorx.Unknown
		}
	}

	return &model.DeleteMediaResponse{RemoteDeleted: remoteDeleted}, nil
}

// progressEmitter forwards upload progress, capped at 99 until the file
// location is known.
type progressEmitter struct {
	ctx  context.Context
	emit router.EmitFunc

	mu   sync.Mutex
	last int
}

func newProgressEmitter(ctx context.Context, emit router.EmitFunc) *progressEmitter {
	return &progressEmitter{ctx: ctx, emit: emit, last: -1}
}

func (p *progressEmitter) send(percent int) {
	if percent > 99 {
		percent = 99
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if percent <= p.last {
		return
	}
	p.last = percent

	if err := p.emit(model.UploadMediaEvent{Progress: percent}); err != nil {
		xcontext.Logger(p.ctx).Debugf("Cannot send upload progress: %v", err)
	}
}
