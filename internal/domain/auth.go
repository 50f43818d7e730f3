package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/authenticator"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AuthDomain interface {
	OAuth2Verify(context.Context, *model.OAuth2VerifyRequest) (*model.OAuth2VerifyResponse, error)
	GetMe(context.Context, *model.GetMeRequest) (*model.GetMeResponse, error)
}

type authDomain struct {
	userRepo       repository.UserRepository
	oauth2Repo     repository.OAuth2Repository
	oauth2Services []authenticator.IOAuth2Service
	tokenEngine    authenticator.TokenEngine[model.AccessToken]
}

func NewAuthDomain(
	userRepo repository.UserRepository,
	oauth2Repo repository.OAuth2Repository,
	oauth2Services []authenticator.IOAuth2Service,
	tokenEngine authenticator.TokenEngine[model.AccessToken],
) AuthDomain {
	return &authDomain{
		userRepo:       userRepo,
		oauth2Repo:     oauth2Repo,
		oauth2Services: oauth2Services,
		tokenEngine:    tokenEngine,
	}
}

func (d *authDomain) OAuth2Verify(
	ctx context.Context, req *model.OAuth2VerifyRequest,
) (*model.OAuth2VerifyResponse, error) {
	service, ok := d.getOAuth2Service(req.Type)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Unsupported type %s", req.Type)
	}

	if req.IDToken == "" {
		return nil, errorx.New(errorx.BadRequest, "Please provide an id token")
	}

	serviceUser, err := service.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify id token: %v", err)
		return nil, errorx.New(errorx.Unauthenticated, "Invalid id token")
	}

	user, err := d.upsertUser(ctx, service.Service(), serviceUser)
	if err != nil {
		return nil, err
	}

	accessToken, err := d.tokenEngine.Generate(user.ID, model.AccessToken{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.OAuth2VerifyResponse{
		User:        model.ConvertUser(user),
		AccessToken: accessToken,
	}, nil
}

func (d *authDomain) GetMe(ctx context.Context, req *model.GetMeRequest) (*model.GetMeResponse, error) {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetMeResponse{User: model.ConvertUser(user)}, nil
}

// upsertUser refreshes the profile of a known account, or creates the user
// and links it with the service account.
func (d *authDomain) upsertUser(
	ctx context.Context, service string, serviceUser authenticator.OAuth2User,
) (*entity.User, error) {
	user, err := d.userRepo.GetByServiceUserID(ctx, service, serviceUser.ID)
	if err == nil {
		profile := &entity.User{Name: serviceUser.Name, Email: serviceUser.Email}
		if err := d.userRepo.UpdateByID(ctx, user.ID, profile); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot refresh user profile: %v", err)
			return user, nil
		}

		if profile.Name != "" {
			user.Name = profile.Name
		}

		if profile.Email != "" {
			user.Email = profile.Email
		}

		return user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get user by service user id: %v", err)
		return nil, errorx.Unknown
	}

	user = &entity.User{
		Base:  entity.Base{ID: uuid.NewString()},
		Name:  serviceUser.Name,
		Email: serviceUser.Email,
	}
	if user.Name == "" {
		user.Name = serviceUser.ID
	}

	err = xcontext.DB(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := xcontext.WithDB(ctx, tx)
		if err := d.userRepo.Create(txCtx, user); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
			return errorx.Unknown
		}

		err := d.oauth2Repo.Create(txCtx, &entity.OAuth2{
			UserID:        user.ID,
			Service:       service,
			ServiceUserID: serviceUser.ID,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot register user with service: %v", err)
			return errorx.New(errorx.AlreadyExists,
				"This %s account was already registered with another user", service)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (d *authDomain) getOAuth2Service(service string) (authenticator.IOAuth2Service, bool) {
	for i := range d.oauth2Services {
		if d.oauth2Services[i].Service() == service {
			return d.oauth2Services[i], true
		}
	}
	return nil, false
}
