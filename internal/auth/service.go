package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/invitations"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	pkgAuth "github.com/angelmondragon/sprinklerhub-backend/pkg/auth"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/security"
)

const invalidCredentialsMessage = "Invalid email or password"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Result, error)
	Login(ctx context.Context, req LoginRequest, guestID string) (*Result, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, userID uint) (*Profile, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

type businessLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
}

type sessionManager interface {
	Start(ctx context.Context, userID uint) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type invitationRedeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, tradie *models.User, token string) (*invitations.Redemption, error)
	Complete(ctx context.Context, r *invitations.Redemption)
}

type effectDispatcher interface {
	Dispatch(ctx context.Context, tradie models.User, t memberships.Transition, outcome *memberships.Outcome)
}

type guestCartMerger interface {
	MergeGuest(ctx context.Context, guestID string, userID uint) (int, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Tx                  txRunner
	Users               userRepository
	Businesses          businessLoader
	Sessions            sessionManager
	Invitations         invitationRedeemer
	Effects             effectDispatcher
	Cart                guestCartMerger
	Logger              *logger.Logger
	SessionConfig       config.SessionConfig
	PasswordConfig      config.PasswordConfig
	AllowSupplierSignup bool
}

type service struct {
	tx                  txRunner
	users               userRepository
	businesses          businessLoader
	sessions            sessionManager
	invitations         invitationRedeemer
	effects             effectDispatcher
	cart                guestCartMerger
	logg                *logger.Logger
	sessionCfg          config.SessionConfig
	passwordCfg         config.PasswordConfig
	allowSupplierSignup bool
	now                 func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user repository required")
	case params.Businesses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "business loader required")
	case params.Sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session manager required")
	case params.Invitations == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invitation redeemer required")
	case params.Effects == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "membership effects required")
	case params.Cart == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart merger required")
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		tx:                  params.Tx,
		users:               params.Users,
		businesses:          params.Businesses,
		sessions:            params.Sessions,
		invitations:         params.Invitations,
		effects:             params.Effects,
		cart:                params.Cart,
		logg:                params.Logger,
		sessionCfg:          params.SessionConfig,
		passwordCfg:         params.PasswordConfig,
		allowSupplierSignup: params.AllowSupplierSignup,
		now:                 func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, guestID string) (*Result, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	if guestID != "" {
		merged, err := s.cart.MergeGuest(ctx, guestID, user.ID)
		logCtx := s.logg.WithField(ctx, "user_id", user.ID)
		if err != nil {
			s.logg.Error(logCtx, "auth.guest_cart_merge_failed", err)
		} else if merged > 0 {
			s.logg.Info(s.logg.WithField(logCtx, "merged_items", merged), "auth.guest_cart_merged")
		}
	}

	return s.startSession(ctx, user, now)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	address := users.NormalizeEmail(email)
	if address == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			security.DummyVerify(password, s.passwordCfg)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) startSession(ctx context.Context, user *models.User, now time.Time) (*Result, error) {
	sessionID, err := s.sessions.Start(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	token, err := pkgAuth.MintSessionToken(s.sessionCfg, now, pkgAuth.SessionPayload{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign session")
	}
	return &Result{
		User:        users.FromModel(user),
		Permissions: access.Resolve(*user),
		Session: Session{
			ID:        sessionID,
			Token:     token,
			ExpiresAt: now.Add(s.sessionCfg.TTL),
		},
	}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	profile := &Profile{
		User:        users.FromModel(user),
		Permissions: access.Resolve(*user),
	}
	if user.HasBusiness() {
		business, err := s.businesses.FindByID(ctx, *user.BusinessID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
		}
		profile.Business = businesses.FromModel(business)
	}
	return profile, nil
}
