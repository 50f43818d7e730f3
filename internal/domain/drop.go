package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/luckydrop/backend/internal/domain/opener"
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/enum"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/idutil"
	"github.com/luckydrop/backend/pkg/pubsub"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

type DropDomain interface {
	Create(context.Context, *model.CreateDropRequest) (*model.CreateDropResponse, error)
	Get(context.Context, *model.GetDropRequest) (*model.GetDropResponse, error)
	GetMyList(context.Context, *model.GetMyDropsRequest) (*model.GetMyDropsResponse, error)
	Update(context.Context, *model.UpdateDropRequest) (*model.UpdateDropResponse, error)
	Open(context.Context, *model.OpenDropRequest) (*model.OpenDropResponse, error)
	CompleteMedia(context.Context, *model.CompleteMediaRequest) (*model.CompleteMediaResponse, error)
	SelectGift(context.Context, *model.SelectGiftRequest) (*model.SelectGiftResponse, error)
	RevealGift(context.Context, *model.RevealGiftRequest) (*model.RevealGiftResponse, error)
	ClaimGift(context.Context, *model.ClaimGiftRequest) (*model.ClaimGiftResponse, error)
	GenerateThankYou(context.Context, *model.GenerateThankYouRequest) (*model.GenerateThankYouResponse, error)
	GetShare(context.Context, *model.GetShareRequest) (*model.GetShareResponse, error)
}

type dropDomain struct {
	dropRepo    repository.DropRepository
	idGenerator idutil.Generator
	publisher   pubsub.Publisher
	thankYou    opener.ThankYouGenerator
	machineOpts []opener.Option
}

func NewDropDomain(
	dropRepo repository.DropRepository,
	idGenerator idutil.Generator,
	publisher pubsub.Publisher,
	thankYou opener.ThankYouGenerator,
	machineOpts ...opener.Option,
) DropDomain {
	return &dropDomain{
		dropRepo:    dropRepo,
		idGenerator: idGenerator,
		publisher:   publisher,
		thankYou:    thankYou,
		machineOpts: machineOpts,
	}
}

func (d *dropDomain) Create(
	ctx context.Context, req *model.CreateDropRequest,
) (*model.CreateDropResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	if err := checkTitle(req.Title); err != nil {
		return nil, err
	}

	if err := checkMessage(req.Message); err != nil {
		return nil, err
	}

	mode, err := enum.ToEnum[entity.DistributionMode](req.DistributionMode)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid distribution mode: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid distribution mode %s", req.DistributionMode)
	}

	id := d.idGenerator.Generate()
	gifts, err := convertGiftInputs(id, req.Gifts)
	if err != nil {
		return nil, err
	}

	media, err := convertMediaInputs(userID, req.GifterMedia)
	if err != nil {
		return nil, err
	}

	drop := &entity.GiftDrop{
		Base:             entity.Base{ID: id},
		UserID:           userID,
		Title:            req.Title,
		Message:          req.Message,
		Gifts:            gifts,
		DistributionMode: mode,
		GifterMedia:      media,
		Status:           entity.LiveDrop,
	}

	if err := d.dropRepo.Create(ctx, drop); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create drop: %v", err)
		return nil, errorx.Unknown
	}

	publishDropEvent(ctx, d.publisher, DropCreatedEvent, drop, "")

	return &model.CreateDropResponse{ID: id, ShareURL: shareURL(ctx, id)}, nil
}

// Get is public, anyone knowing the id can load the drop. Recipient details
// are only shown to the owner.
func (d *dropDomain) Get(
	ctx context.Context, req *model.GetDropRequest,
) (*model.GetDropResponse, error) {
	drop, err := getDrop(ctx, d.dropRepo, req.ID)
	if err != nil {
		return nil, err
	}

	result := model.ConvertDrop(drop)
	if drop.UserID != xcontext.RequestUserID(ctx) {
		result.RecipientDetails = nil
	}

	return &model.GetDropResponse{
		Drop:          result,
		Stage:         string(opener.Resolve(drop)),
		RevealDelayMs: revealDelayMs(ctx),
	}, nil
}

func (d *dropDomain) GetMyList(
	ctx context.Context, req *model.GetMyDropsRequest,
) (*model.GetMyDropsResponse, error) {
	drops, err := d.dropRepo.GetListByUserID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get drop list: %v", err)
		return nil, errorx.Unknown
	}

	result := []model.Drop{}
	for i := range drops {
		result = append(result, model.ConvertDrop(&drops[i]))
	}

	return &model.GetMyDropsResponse{Drops: result}, nil
}

func (d *dropDomain) Update(
	ctx context.Context, req *model.UpdateDropRequest,
) (*model.UpdateDropResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	drop, err := getDrop(ctx, d.dropRepo, req.ID)
	if err != nil {
		return nil, err
	}

	if drop.UserID != userID {
		return nil, errorx.New(errorx.PermissionDenied, "Only the owner can edit this drop")
	}

	if drop.IsOpened() {
		return nil, errorx.New(errorx.DropOpened, "The recipient has already opened this drop")
	}

	data := &entity.GiftDrop{}
	if req.Title != "" {
		if err := checkTitle(req.Title); err != nil {
			return nil, err
		}
		data.Title = req.Title
	}

	if req.Message != "" {
		if err := checkMessage(req.Message); err != nil {
			return nil, err
		}
		data.Message = req.Message
	}

	if req.Gifts != nil {
		data.Gifts, err = convertGiftInputs(drop.ID, req.Gifts)
		if err != nil {
			return nil, err
		}
	}

	if req.GifterMedia != nil {
		data.GifterMedia, err = convertMediaInputs(userID, req.GifterMedia)
		if err != nil {
			return nil, err
		}
	}

	if err := d.dropRepo.Update(ctx, drop.ID, userID, data); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.DropOpened, "The recipient has already opened this drop")
		}

		xcontext.Logger(ctx).Errorf("Cannot update drop: %v", err)
		return nil, errorx.Unknown
	}

	drop, err = getDrop(ctx, d.dropRepo, drop.ID)
	if err != nil {
		return nil, err
	}

	publishDropEvent(ctx, d.publisher, DropUpdatedEvent, drop, "")

	return &model.UpdateDropResponse{Drop: model.ConvertDrop(drop)}, nil
}

func (d *dropDomain) Open(
	ctx context.Context, req *model.OpenDropRequest,
) (*model.OpenDropResponse, error) {
	machine, err := d.loadMachine(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	firstOpen := machine.Stage() == opener.StageInitial
	stage, err := machine.Open(ctx)
	if err != nil {
		return nil, err
	}

	if firstOpen {
		publishDropEvent(ctx, d.publisher, DropOpenedEvent, machine.Drop(), "")
	}

	return &model.OpenDropResponse{Stage: string(stage)}, nil
}

func (d *dropDomain) CompleteMedia(
	ctx context.Context, req *model.CompleteMediaRequest,
) (*model.CompleteMediaResponse, error) {
	machine, err := d.loadMachine(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if err := machine.CompleteMedia(); err != nil {
		return nil, err
	}

	return &model.CompleteMediaResponse{Stage: string(machine.Stage())}, nil
}

func (d *dropDomain) SelectGift(
	ctx context.Context, req *model.SelectGiftRequest,
) (*model.SelectGiftResponse, error) {
	machine, err := d.loadMachine(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	gift, err := machine.Pick(ctx, req.GiftID)
	if err != nil {
		return nil, err
	}

	publishDropEvent(ctx, d.publisher, DropGiftSelectedEvent, machine.Drop(), gift.ID)

	return &model.SelectGiftResponse{
		Gift:          model.ConvertGift(gift),
		Stage:         string(machine.Stage()),
		RevealDelayMs: revealDelayMs(ctx),
	}, nil
}

func (d *dropDomain) RevealGift(
	ctx context.Context, req *model.RevealGiftRequest,
) (*model.RevealGiftResponse, error) {
	machine, err := d.loadMachine(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	gift, err := machine.RevealRandom(ctx)
	if err != nil {
		return nil, err
	}

	// Only the request which committed the draw is left in the revealing stage.
	if machine.Stage() == opener.StageRevealing {
		publishDropEvent(ctx, d.publisher, DropGiftSelectedEvent, machine.Drop(), gift.ID)
	}

	return &model.RevealGiftResponse{
		Gift:          model.ConvertGift(gift),
		Stage:         string(machine.Stage()),
		RevealDelayMs: revealDelayMs(ctx),
	}, nil
}

// ClaimGift moves the recipient from the revealed gift to the details form and
// submits it in a single call.
func (d *dropDomain) ClaimGift(
	ctx context.Context, req *model.ClaimGiftRequest,
) (*model.ClaimGiftResponse, error) {
	machine, err := d.loadMachine(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if machine.Stage() == opener.StageRevealed {
		if err := machine.Claim(); err != nil {
			return nil, err
		}
	}

	if err := machine.SubmitDetails(ctx, req.Name, req.Address); err != nil {
		return nil, err
	}

	gift, _ := machine.SelectedGift()
	publishDropEvent(ctx, d.publisher, DropClaimedEvent, machine.Drop(), gift.ID)

	return &model.ClaimGiftResponse{Stage: string(machine.Stage())}, nil
}

func (d *dropDomain) GenerateThankYou(
	ctx context.Context, req *model.GenerateThankYouRequest,
) (*model.GenerateThankYouResponse, error) {
	machine, err := d.loadMachine(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	note, err := machine.ThankYou(ctx, d.thankYou)
	if err != nil {
		return nil, aiflowError(ctx, "llm", err)
	}

	return &model.GenerateThankYouResponse{
		Message:   note.Message,
		MediaType: note.MediaType,
	}, nil
}

func (d *dropDomain) GetShare(
	ctx context.Context, req *model.GetShareRequest,
) (*model.GetShareResponse, error) {
	drop, err := getDrop(ctx, d.dropRepo, req.ID)
	if err != nil {
		return nil, err
	}

	url := shareURL(ctx, drop.ID)
	png, err := qrcode.Encode(url, qrcode.Medium, xcontext.Configs(ctx).Drop.QRCodeSize)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot encode qr code: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetShareResponse{
		URL:    url,
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

func (d *dropDomain) loadMachine(ctx context.Context, id string) (*opener.Machine, error) {
	drop, err := getDrop(ctx, d.dropRepo, id)
	if err != nil {
		return nil, err
	}

	return opener.New(d.dropRepo, drop, d.machineOpts...), nil
}

func shareURL(ctx context.Context, id string) string {
	return fmt.Sprintf("%s/drop/%s", xcontext.Configs(ctx).Drop.ShareBaseURL, id)
}

func revealDelayMs(ctx context.Context) int64 {
	return xcontext.Configs(ctx).Drop.RevealDelay.Milliseconds()
}
