package access

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

type userLoader interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Resolver loads users and resolves their permissions.
type Resolver struct {
	users userLoader
}

func NewResolver(users userLoader) (*Resolver, error) {
	if users == nil {
		return nil, errors.New("user loader required")
	}
	return &Resolver{users: users}, nil
}

// ForUser loads the user and resolves permissions. A missing user is a hard
// authentication failure, never a denial.
func (r *Resolver) ForUser(ctx context.Context, userID uint) (*models.User, Permissions, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Permissions{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
		}
		return nil, Permissions{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, Resolve(*user), nil
}
