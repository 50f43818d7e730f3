package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/luckydrop/backend/internal/common"
	"github.com/luckydrop/backend/internal/domain/aiflow"
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/enum"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/pubsub"
	"github.com/luckydrop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	minTitleLength   = 3
	maxTitleLength   = 50
	maxMessageLength = 300
	minGifts         = 1
	maxGifts         = 5
)

const (
	DropCreatedEvent      = "drop.created"
	DropUpdatedEvent      = "drop.updated"
	DropOpenedEvent       = "drop.opened"
	DropGiftSelectedEvent = "drop.gift_selected"
	DropClaimedEvent      = "drop.claimed"
)

// publishDropEvent never fails the request, a lost event is only logged.
func publishDropEvent(
	ctx context.Context, publisher pubsub.Publisher, eventType string, drop *entity.GiftDrop, giftID string,
) {
	common.PromCounters[common.DropEventTotal].WithLabelValues(eventType).Inc()

	b, err := json.Marshal(model.DropEvent{
		Type:   eventType,
		DropID: drop.ID,
		UserID: drop.UserID,
		GiftID: giftID,
		At:     time.Now().Format(model.DefaultTimeLayout),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal drop event: %v", err)
		return
	}

	err = publisher.Publish(ctx, xcontext.Configs(ctx).Kafka.Topic, &pubsub.Pack{
		Key: []byte(drop.ID),
		Msg: b,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish %s event of drop %s: %v", eventType, drop.ID, err)
	}
}

func checkTitle(title string) error {
	n := len([]rune(strings.TrimSpace(title)))
	if n < minTitleLength {
		return errorx.New(errorx.BadRequest, "Title too short (at least %d characters)", minTitleLength)
	}

	if n > maxTitleLength {
		return errorx.New(errorx.BadRequest, "Title too long (at most %d characters)", maxTitleLength)
	}

	return nil
}

func checkMessage(message string) error {
	if len([]rune(message)) > maxMessageLength {
		return errorx.New(errorx.BadRequest, "Message too long (at most %d characters)", maxMessageLength)
	}

	return nil
}

// convertGiftInputs validates the gifts of a drop and assigns their
// positional ids.
func convertGiftInputs(dropID string, inputs []model.GiftInput) (entity.Array[entity.Gift], error) {
	if len(inputs) < minGifts || len(inputs) > maxGifts {
		return nil, errorx.New(errorx.BadRequest, "A drop needs between %d and %d gifts", minGifts, maxGifts)
	}

	gifts := entity.Array[entity.Gift]{}
	for i, g := range inputs {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, errorx.New(errorx.BadRequest, "Gift %d needs a name", i+1)
		}

		image := strings.TrimSpace(g.Image)
		if image == "" {
			return nil, errorx.New(errorx.BadRequest, "Gift %s needs an image", name)
		}

		gifts = append(gifts, entity.Gift{
			ID:          entity.GiftID(dropID, i),
			Name:        name,
			Image:       image,
			Platform:    strings.TrimSpace(g.Platform),
			URL:         strings.TrimSpace(g.URL),
			Price:       strings.TrimSpace(g.Price),
			Description: strings.TrimSpace(g.Description),
		})
	}

	return gifts, nil
}

// convertMediaInputs validates the media of a drop. Uploaded media must come
// from the namespace of the owner.
func convertMediaInputs(ownerID string, inputs []model.Media) (entity.MediaList, error) {
	list := entity.MediaList{}
	for _, m := range inputs {
		mediaType, err := enum.ToEnum[entity.MediaType](m.Type)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid media type %s", m.Type)
		}

		if strings.TrimSpace(m.URL) == "" {
			return nil, errorx.New(errorx.BadRequest, "Media needs an url")
		}

		if m.PublicID != "" && !strings.HasPrefix(m.PublicID, mediaNamespace(ownerID)) {
			return nil, errorx.New(errorx.PermissionDenied, "Media %s does not belong to you", m.PublicID)
		}

		list = append(list, entity.Media{
			Type:     mediaType,
			URL:      m.URL,
			Title:    m.Title,
			PublicID: m.PublicID,
		})
	}

	return list, nil
}

func mediaNamespace(ownerID string) string {
	return "uploads/" + ownerID + "/"
}

// aiflowError converts failures of the AI flows into user facing errors.
func aiflowError(ctx context.Context, upstream string, err error) error {
	var errx errorx.Error
	if errors.As(err, &errx) {
		return errx
	}

	if errors.Is(err, aiflow.ErrNoResults) {
		return errorx.New(errorx.NoSuggestions, "No gifts found for this prompt, try describing it differently")
	}

	common.PromCounters[common.UpstreamFailureTotal].WithLabelValues(upstream).Inc()
	if errors.Is(err, aiflow.ErrInvalidOutput) {
		xcontext.Logger(ctx).Warnf("Invalid output of %s: %v", upstream, err)
		return errorx.New(errorx.UpstreamFailed, "Cannot generate gifts right now, please try again")
	}

	xcontext.Logger(ctx).Errorf("Cannot call %s: %v", upstream, err)
	return errorx.New(errorx.Unavailable, "The %s service is unavailable, please try again", upstream)
}

func getDrop(ctx context.Context, dropRepo repository.DropRepository, id string) (*entity.GiftDrop, error) {
	if id == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty drop id")
	}

	drop, err := dropRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found drop")
		}

		xcontext.Logger(ctx).Errorf("Cannot get drop: %v", err)
		return nil, errorx.Unknown
	}

	return drop, nil
}
