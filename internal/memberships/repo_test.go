//go:build db
// +build db

package memberships

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("SPRINKLERHUB_DB_DSN")
	if dsn == "" {
		t.Skip("SPRINKLERHUB_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func TestRepositoryMembershipFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	business := &models.Business{Name: "Repo Business", PriceTier: enums.PriceTierT2}
	if err := tx.Create(business).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	tradie := &models.User{
		Email:        fmt.Sprintf("sh_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Tradie",
		Role:         enums.UserRoleTradie,
		Status:       enums.UserStatusUnassigned,
	}
	if err := tx.Create(tradie).Error; err != nil {
		t.Fatalf("create tradie: %v", err)
	}

	now := time.Now()
	if _, err := Execute(ctx, repo, tradie, Transition{Action: ActionRequestJoin, BusinessID: business.ID}, now); err != nil {
		t.Fatalf("request join: %v", err)
	}

	list, err := repo.ListTradies(ctx, business.ID)
	if err != nil {
		t.Fatalf("list tradies: %v", err)
	}
	if len(list) != 1 || StateOf(list[0]) != StatePending {
		t.Fatalf("expected one pending tradie, got %+v", list)
	}

	if _, err := Execute(ctx, repo, tradie, Transition{Action: ActionApprove, BusinessID: business.ID}, now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	fetched, err := repo.FindUser(ctx, tradie.ID)
	if err != nil {
		t.Fatalf("find tradie: %v", err)
	}
	if StateOf(*fetched) != StateApproved {
		t.Fatalf("expected approved, got %s", StateOf(*fetched))
	}

	stale := *fetched
	stale.IsApproved = false
	ok, err := repo.Apply(ctx, stale, Changes{Status: enums.UserStatusRejected})
	if err != nil {
		t.Fatalf("apply stale: %v", err)
	}
	if ok {
		t.Fatal("expected stale apply to be refused")
	}
}
