package domain

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/storage"
	"github.com/luckydrop/backend/pkg/testutil"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func generateImage(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(2, 3, color.RGBA{255, 0, 0, 255})

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newUploadContext(t *testing.T, userID, filename, mime string, data []byte) context.Context {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mime)
	fw, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest("POST", "/uploadMedia", body)
	request.Header.Add("Content-Type", writer.FormDataContentType())

	ctx := testutil.MockContextWithUserID(userID)
	ctx = xcontext.WithHTTPRequest(ctx, request)
	ctx = xcontext.WithResponseWriter(ctx, httptest.NewRecorder())
	return ctx
}

func collectEvents(events *[]model.UploadMediaEvent) func(any) error {
	return func(event any) error {
		*events = append(*events, event.(model.UploadMediaEvent))
		return nil
	}
}

func Test_mediaDomain_Upload(t *testing.T) {
	ctx := newUploadContext(t, testutil.User1.ID, "Card.PNG", "image/png", generateImage(t, 100, 50))

	var uploaded *storage.UploadObject
	stg := &testutil.MockStorage{
		UploadFunc: func(ctx context.Context, obj *storage.UploadObject) (*storage.UploadResponse, error) {
			uploaded = obj
			for _, sent := range []int64{0, 250, 125, 500, 1000, 1000} {
				obj.Progress(sent, 1000)
			}

			return &storage.UploadResponse{Url: "https://cdn/media/" + obj.Key, Key: obj.Key}, nil
		},
	}
	domain := NewMediaDomain(repository.NewDropRepository(), stg)

	var events []model.UploadMediaEvent
	err := domain.Upload(ctx, collectEvents(&events))
	require.NoError(t, err)

	require.NotNil(t, uploaded)
	require.Equal(t, "image/png", uploaded.Mime)
	require.True(t, strings.HasPrefix(uploaded.Key, "uploads/user1/"))
	require.True(t, strings.HasSuffix(uploaded.Key, ".png"))

	require.Equal(t, []int{0, 25, 50, 99, 100}, progressValues(events))

	last := events[len(events)-1]
	require.Equal(t, "https://cdn/media/"+uploaded.Key, last.URL)
	require.Equal(t, uploaded.Key, last.PublicID)
	require.Equal(t, "card", last.Type)
	for _, e := range events[:len(events)-1] {
		require.Empty(t, e.URL)
	}
}

func Test_mediaDomain_Upload_Downscale(t *testing.T) {
	ctx := newUploadContext(t, testutil.User1.ID, "big.png", "image/png", generateImage(t, 400, 200))
	cfg := xcontext.Configs(ctx)
	cfg.File.MaxImageDimension = 100
	ctx = xcontext.WithConfigs(ctx, cfg)

	var data []byte
	stg := &testutil.MockStorage{
		UploadFunc: func(ctx context.Context, obj *storage.UploadObject) (*storage.UploadResponse, error) {
			data = obj.Data
			return &storage.UploadResponse{Url: "https://cdn/" + obj.Key, Key: obj.Key}, nil
		},
	}
	domain := NewMediaDomain(repository.NewDropRepository(), stg)

	var events []model.UploadMediaEvent
	require.NoError(t, domain.Upload(ctx, collectEvents(&events)))

	img, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 100, img.Width)
	require.Equal(t, 50, img.Height)
}

func Test_mediaDomain_Upload_UnsupportedType(t *testing.T) {
	ctx := newUploadContext(t, testutil.User1.ID, "notes.txt", "text/plain", []byte("hello"))

	called := false
	stg := &testutil.MockStorage{
		UploadFunc: func(ctx context.Context, obj *storage.UploadObject) (*storage.UploadResponse, error) {
			called = true
			return nil, nil
		},
	}
	domain := NewMediaDomain(repository.NewDropRepository(), stg)

	var events []model.UploadMediaEvent
	err := domain.Upload(ctx, collectEvents(&events))
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))
	require.False(t, called)
	require.Empty(t, events)
}

func Test_mediaDomain_Upload_TooLarge(t *testing.T) {
	ctx := newUploadContext(t, testutil.User1.ID, "song.mp3", "audio/mpeg", make([]byte, 3<<20))
	domain := NewMediaDomain(repository.NewDropRepository(), &testutil.MockStorage{})

	var events []model.UploadMediaEvent
	err := domain.Upload(ctx, collectEvents(&events))
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))
	require.Empty(t, events)
}

func Test_mediaDomain_Upload_StorageFailure(t *testing.T) {
	ctx := newUploadContext(t, testutil.User1.ID, "clip.mp4", "video/mp4", []byte("video"))
	stg := &testutil.MockStorage{
		UploadFunc: func(ctx context.Context, obj *storage.UploadObject) (*storage.UploadResponse, error) {
			return nil, errors.New("connection reset")
		},
	}
	domain := NewMediaDomain(repository.NewDropRepository(), stg)

	var events []model.UploadMediaEvent
	err := domain.Upload(ctx, collectEvents(&events))
	require.ErrorIs(t, err, errorx.New(errorx.Unavailable, ""))
	for _, e := range events {
		require.Less(t, e.Progress, 100)
	}
}

func Test_mediaDomain_Delete(t *testing.T) {
	publicID := testutil.ManualDrop1.GifterMedia[0].PublicID

	testCases := []struct {
		name          string
		userID        string
		req           *model.DeleteMediaRequest
		deleteErr     error
		remoteDeleted bool
		mediaLeft     int
		wantErr       error
	}{
		{
			name:          "remove from drop",
			userID:        testutil.User1.ID,
			req:           &model.DeleteMediaRequest{PublicID: publicID, DropID: testutil.ManualDrop1.ID},
			remoteDeleted: true,
			mediaLeft:     0,
		},
		{
			name:          "remote failure still removes from drop",
			userID:        testutil.User1.ID,
			req:           &model.DeleteMediaRequest{PublicID: publicID, DropID: testutil.ManualDrop1.ID},
			deleteErr:     errors.New("timeout"),
			remoteDeleted: false,
			mediaLeft:     0,
		},
		{
			name:          "without drop",
			userID:        testutil.User1.ID,
			req:           &model.DeleteMediaRequest{PublicID: "uploads/user1/2-b.mp3"},
			remoteDeleted: true,
			mediaLeft:     1,
		},
		{
			name:      "foreign namespace",
			userID:    testutil.User2.ID,
			req:       &model.DeleteMediaRequest{PublicID: publicID},
			mediaLeft: 1,
			wantErr:   errorx.New(errorx.PermissionDenied, ""),
		},
		{
			name:      "escape namespace",
			userID:    testutil.User1.ID,
			req:       &model.DeleteMediaRequest{PublicID: "uploads/user1/../user2/1-a.png"},
			mediaLeft: 1,
			wantErr:   errorx.New(errorx.PermissionDenied, ""),
		},
		{
			name:      "drop of another user",
			userID:    testutil.User2.ID,
			req:       &model.DeleteMediaRequest{PublicID: "uploads/user2/1-a.png", DropID: testutil.ManualDrop1.ID},
			mediaLeft: 1,
			wantErr:   errorx.New(errorx.PermissionDenied, ""),
		},
		{
			name:      "opened drop",
			userID:    testutil.User2.ID,
			req:       &model.DeleteMediaRequest{PublicID: "uploads/user2/1-a.png", DropID: testutil.OpenedDrop3.ID},
			mediaLeft: 1,
			wantErr:   errorx.New(errorx.DropOpened, ""),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.MockContextWithUserID(tt.userID)
			testutil.CreateFixtureDb(ctx)

			deleted := []string{}
			stg := &testutil.MockStorage{
				DeleteFunc: func(ctx context.Context, key string) error {
					deleted = append(deleted, key)
					return tt.deleteErr
				},
			}
			dropRepo := repository.NewDropRepository()
			domain := NewMediaDomain(dropRepo, stg)

			resp, err := domain.Delete(ctx, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, deleted)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.remoteDeleted, resp.RemoteDeleted)
				require.Equal(t, []string{tt.req.PublicID}, deleted)
			}

			drop, err := dropRepo.GetByID(ctx, testutil.ManualDrop1.ID)
			require.NoError(t, err)
			require.Len(t, drop.GifterMedia, tt.mediaLeft)
		})
	}
}

func progressValues(events []model.UploadMediaEvent) []int {
	result := []int{}
	for _, e := range events {
		result = append(result, e.Progress)
	}
	return result
}
