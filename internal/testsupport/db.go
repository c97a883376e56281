// Package testsupport holds sqlite fixtures shared by repository and service tests.
package testsupport

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
)

var dbSeq atomic.Int64

// OpenDB returns an isolated in-memory sqlite database with every model migrated.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// MustBusiness inserts a business at the given tier.
func MustBusiness(t *testing.T, db *gorm.DB, name string, tier enums.PriceTier) *models.Business {
	t.Helper()
	b := &models.Business{Name: name, PriceTier: tier}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	return b
}

// UserOption mutates a user before insert.
type UserOption func(*models.User)

func WithBusiness(id uint) UserOption {
	return func(u *models.User) { u.BusinessID = &id }
}

func Approved() UserOption {
	return func(u *models.User) {
		u.IsApproved = true
		u.Status = enums.UserStatusActive
		now := time.Now().UTC()
		u.ApprovalDate = &now
	}
}

func WithStatus(status enums.UserStatus) UserOption {
	return func(u *models.User) { u.Status = status }
}

// MustUser inserts a user with a unique email.
func MustUser(t *testing.T, db *gorm.DB, role enums.UserRole, opts ...UserOption) *models.User {
	t.Helper()
	u := &models.User{
		Email:        fmt.Sprintf("%s_%d@example.com", role, dbSeq.Add(1)),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     strings.ToUpper(string(role[:1])) + string(role[1:]),
		Role:         role,
		Status:       enums.UserStatusUnassigned,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// MustPart inserts a part priced 30/20/10 across T1..T3 unless overridden.
func MustPart(t *testing.T, db *gorm.DB, code string) *models.Part {
	t.Helper()
	p := &models.Part{
		ItemCode:    code,
		Description: "Part " + code,
		Category:    "Sprinkler Heads",
		PriceT1:     decimal.RequireFromString("30.00"),
		PriceT2:     decimal.RequireFromString("20.00"),
		PriceT3:     decimal.RequireFromString("10.00"),
		Stock:       100,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create part: %v", err)
	}
	return p
}

// MustJob inserts a job owned by the business and PM.
func MustJob(t *testing.T, db *gorm.DB, businessID, pmID uint, number string) *models.Job {
	t.Helper()
	j := &models.Job{
		BusinessID:       businessID,
		ProjectManagerID: pmID,
		JobNumber:        number,
		Name:             "Job " + number,
		Status:           "In Progress",
	}
	if err := db.Create(j).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return j
}
