package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/jobs"
	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/internal/testsupport"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/visibility"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := testsupport.OpenDB(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), parts.NewRepository(conn), jobs.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func countRows(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&n).Error)
	return n
}

func TestAddDuplicateIncrementsQuantity(t *testing.T) {
	svc, conn := newTestService(t)
	biz := testsupport.MustBusiness(t, conn, "Acme", enums.PriceTierT2)
	tradie := testsupport.MustUser(t, conn, enums.UserRoleTradie, testsupport.WithBusiness(biz.ID), testsupport.Approved())
	part := testsupport.MustPart(t, conn, "SPR-1")
	owner := Owner{UserID: &tradie.ID}
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, AddItemInput{PartID: part.ID, Quantity: 2, BusinessID: tradie.BusinessID})
	require.NoError(t, err)
	item, err := svc.Add(ctx, owner, AddItemInput{PartID: part.ID, Quantity: 3, BusinessID: tradie.BusinessID})
	require.NoError(t, err)

	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, int64(1), countRows(t, conn))
}

func TestAddSamePartDifferentJobsKeepsRows(t *testing.T) {
	svc, conn := newTestService(t)
	biz := testsupport.MustBusiness(t, conn, "Acme", enums.PriceTierT2)
	pm := testsupport.MustUser(t, conn, enums.UserRoleProjectManager, testsupport.WithBusiness(biz.ID))
	job := testsupport.MustJob(t, conn, biz.ID, pm.ID, "J-1")
	part := testsupport.MustPart(t, conn, "SPR-1")
	owner := Owner{UserID: &pm.ID}
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, AddItemInput{PartID: part.ID, Quantity: 1, BusinessID: pm.BusinessID})
	require.NoError(t, err)
	_, err = svc.Add(ctx, owner, AddItemInput{PartID: part.ID, JobID: &job.ID, Quantity: 1, BusinessID: pm.BusinessID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), countRows(t, conn))

	tier := enums.PriceTierT2
	cart, err := svc.Get(ctx, owner, visibility.Viewer{Role: enums.UserRoleProjectManager, Tier: &tier})
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount)
	require.NotNil(t, cart.Subtotal)
	assert.Equal(t, "40", cart.Subtotal.String())
}

func TestAddRejectsForeignJobAndMissingPart(t *testing.T) {
	svc, conn := newTestService(t)
	biz := testsupport.MustBusiness(t, conn, "Acme", enums.PriceTierT2)
	other := testsupport.MustBusiness(t, conn, "Other", enums.PriceTierT2)
	pm := testsupport.MustUser(t, conn, enums.UserRoleProjectManager, testsupport.WithBusiness(biz.ID))
	foreign := testsupport.MustJob(t, conn, other.ID, pm.ID, "J-X")
	part := testsupport.MustPart(t, conn, "SPR-1")
	ctx := context.Background()

	_, err := svc.Add(ctx, Owner{UserID: &pm.ID}, AddItemInput{PartID: part.ID, JobID: &foreign.ID, Quantity: 1, BusinessID: pm.BusinessID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Add(ctx, Owner{GuestID: "guest-1"}, AddItemInput{PartID: part.ID, JobID: &foreign.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Add(ctx, Owner{UserID: &pm.ID}, AddItemInput{PartID: 999, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, Owner{UserID: &pm.ID}, AddItemInput{PartID: part.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateQuantityZeroDeletesPositiveSets(t *testing.T) {
	svc, conn := newTestService(t)
	part := testsupport.MustPart(t, conn, "SPR-1")
	owner := Owner{GuestID: "guest-1"}
	ctx := context.Background()

	item, err := svc.Add(ctx, owner, AddItemInput{PartID: part.ID, Quantity: 4})
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(ctx, owner, item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	removed, err := svc.UpdateQuantity(ctx, owner, item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Equal(t, int64(0), countRows(t, conn))

	_, err = svc.UpdateQuantity(ctx, owner, item.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOwnersCannotTouchEachOthersItems(t *testing.T) {
	svc, conn := newTestService(t)
	part := testsupport.MustPart(t, conn, "SPR-1")
	ctx := context.Background()

	item, err := svc.Add(ctx, Owner{GuestID: "guest-a"}, AddItemInput{PartID: part.ID, Quantity: 1})
	require.NoError(t, err)

	err = svc.Remove(ctx, Owner{GuestID: "guest-b"}, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMergeGuestSumsMatchingRows(t *testing.T) {
	svc, conn := newTestService(t)
	user := testsupport.MustUser(t, conn, enums.UserRoleProjectManager)
	p1 := testsupport.MustPart(t, conn, "SPR-1")
	p2 := testsupport.MustPart(t, conn, "SPR-2")
	ctx := context.Background()
	guest := Owner{GuestID: "guest-1"}
	owner := Owner{UserID: &user.ID}

	_, err := svc.Add(ctx, guest, AddItemInput{PartID: p1.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, guest, AddItemInput{PartID: p2.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, owner, AddItemInput{PartID: p1.ID, Quantity: 3})
	require.NoError(t, err)

	merged, err := svc.MergeGuest(ctx, "guest-1", user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	cart, err := svc.Get(ctx, owner, visibility.Viewer{})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 6, cart.ItemCount)
	assert.Nil(t, cart.Subtotal)

	guestCart, err := svc.Get(ctx, guest, visibility.Viewer{})
	require.NoError(t, err)
	assert.Empty(t, guestCart.Items)
}

func TestClear(t *testing.T) {
	svc, conn := newTestService(t)
	part := testsupport.MustPart(t, conn, "SPR-1")
	owner := Owner{GuestID: "guest-1"}
	ctx := context.Background()
	_, err := svc.Add(ctx, owner, AddItemInput{PartID: part.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, owner))
	assert.Equal(t, int64(0), countRows(t, conn))
}
