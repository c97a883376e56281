package orders

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/internal/jobs"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/internal/testsupport"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type fixture struct {
	conn   *gorm.DB
	svc    Service
	biz    *models.Business
	pm     *models.User
	tradie *models.User
	part   *models.Part
	job    *models.Job
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testsupport.OpenDB(t)
	notify, err := notifications.NewService(notifications.NewRepository(conn),
		logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}))
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Repo:       NewRepository(conn),
		Tx:         db.Wrap(conn),
		Cart:       cart.NewRepository(conn),
		Parts:      parts.NewRepository(conn),
		Businesses: businesses.NewRepository(conn),
		Jobs:       jobs.NewRepository(conn),
		Managers:   users.NewRepository(conn),
		Notify:     notify,
	})
	require.NoError(t, err)

	biz := testsupport.MustBusiness(t, conn, "Acme Fire", enums.PriceTierT2)
	pm := testsupport.MustUser(t, conn, enums.UserRoleProjectManager, testsupport.WithBusiness(biz.ID), testsupport.Approved())
	tradie := testsupport.MustUser(t, conn, enums.UserRoleTradie, testsupport.WithBusiness(biz.ID), testsupport.Approved())
	return fixture{
		conn:   conn,
		svc:    svc,
		biz:    biz,
		pm:     pm,
		tradie: tradie,
		part:   testsupport.MustPart(t, conn, "HEAD-68"),
		job:    testsupport.MustJob(t, conn, biz.ID, pm.ID, "J-100"),
	}
}

func (f fixture) addToCart(t *testing.T, userID, partID uint, jobID *uint, qty int) {
	t.Helper()
	uid := userID
	require.NoError(t, f.conn.Create(&models.CartItem{UserID: &uid, PartID: partID, JobID: jobID, Quantity: qty}).Error)
}

// pendingOrder submits a tradie order of 3 units at the T2 price of 20.
func (f fixture) pendingOrder(t *testing.T) *OrderDetail {
	t.Helper()
	f.addToCart(t, f.tradie.ID, f.part.ID, &f.job.ID, 3)
	order, err := f.svc.Create(context.Background(), *f.tradie, CreateOrderInput{Notes: "for level 2"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPendingApproval, order.Status)
	return order
}

func (f fixture) countRows(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestTradieOrderSnapshotsTierPriceAndClearsCart(t *testing.T) {
	f := newFixture(t)
	other := testsupport.MustJob(t, f.conn, f.biz.ID, f.pm.ID, "J-200")
	f.addToCart(t, f.tradie.ID, f.part.ID, &f.job.ID, 2)
	f.addToCart(t, f.tradie.ID, f.part.ID, &other.ID, 1)

	order, err := f.svc.Create(context.Background(), *f.tradie, CreateOrderInput{JobID: &f.job.ID})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPendingApproval, order.Status)
	assert.Nil(t, order.Total, "tradies never see prices")
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	require.Len(t, order.History, 1)

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, order.ID).Error)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(60)), "3 x T2 price of 20, got %s", stored.Total)
	assert.Zero(t, f.countRows(t, &models.CartItem{}, "user_id = ?", f.tradie.ID))
	assert.Equal(t, int64(1), f.countRows(t, &models.Notification{}, "user_id = ? AND type = ?", f.pm.ID, enums.NotificationTypeOrderSubmitted))

	// Later price changes never touch the snapshot.
	require.NoError(t, f.conn.Model(&models.Part{}).Where("id = ?", f.part.ID).Update("price_t2", decimal.NewFromInt(99)).Error)
	detail, err := f.svc.Get(context.Background(), *f.pm, order.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Items[0].UnitPrice)
	assert.True(t, detail.Items[0].UnitPrice.Equal(decimal.NewFromInt(20)))
}

func TestProjectManagerOrderIsApprovedOnCreate(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, f.pm.ID, f.part.ID, nil, 1)

	order, err := f.svc.Create(context.Background(), *f.pm, CreateOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, order.Status)
	require.NotNil(t, order.ApprovedBy)
	assert.Equal(t, f.pm.ID, *order.ApprovedBy)
	require.NotNil(t, order.Total)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(20)))
	assert.Zero(t, f.countRows(t, &models.Notification{}, "1 = 1"))
}

func TestCreateDeniedForLimitedTradie(t *testing.T) {
	f := newFixture(t)
	limited := testsupport.MustUser(t, f.conn, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))
	f.addToCart(t, limited.ID, f.part.ID, nil, 1)

	_, err := f.svc.Create(context.Background(), *limited, CreateOrderInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Contains(t, pkgerrors.As(err).Message(), "limited")
	assert.Equal(t, int64(1), f.countRows(t, &models.CartItem{}, "user_id = ?", limited.ID))
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), *f.tradie, CreateOrderInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestApprovePendingOrder(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)

	approved, err := f.svc.Approve(context.Background(), *f.pm, order.ID, "go ahead")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.pm.ID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovalDate)
	require.Len(t, approved.History, 2)
	assert.Equal(t, enums.OrderStatusApproved, approved.History[1].Status)
	assert.Equal(t, f.pm.ID, approved.History[1].ChangedBy)

	var note models.Notification
	require.NoError(t, f.conn.Where("user_id = ? AND type = ?", f.tradie.ID, enums.NotificationTypeOrderApproved).First(&note).Error)
	require.NotNil(t, note.RelatedID)
	assert.Equal(t, order.ID, *note.RelatedID)
	assert.Contains(t, note.Message, "go ahead")
}

func TestApproveNonPendingIsStateConflictWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)
	_, err := f.svc.Approve(context.Background(), *f.pm, order.ID, "")
	require.NoError(t, err)

	historyBefore := f.countRows(t, &models.OrderHistory{}, "order_id = ?", order.ID)
	notesBefore := f.countRows(t, &models.Notification{}, "user_id = ?", f.tradie.ID)

	_, err = f.svc.Approve(context.Background(), *f.pm, order.ID, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	assert.Equal(t, historyBefore, f.countRows(t, &models.OrderHistory{}, "order_id = ?", order.ID))
	assert.Equal(t, notesBefore, f.countRows(t, &models.Notification{}, "user_id = ?", f.tradie.ID))
}

func TestApproveOtherCompanyOrderIsForbidden(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)
	otherBiz := testsupport.MustBusiness(t, f.conn, "Other", enums.PriceTierT1)
	otherPM := testsupport.MustUser(t, f.conn, enums.UserRoleProjectManager, testsupport.WithBusiness(otherBiz.ID))

	_, err := f.svc.Approve(context.Background(), *otherPM, order.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Approve(context.Background(), *f.pm, 424242, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRejectRequiresReasonBeforeMutation(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)

	_, err := f.svc.Reject(context.Background(), *f.pm, order.ID, "   ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, order.ID).Error)
	assert.Equal(t, enums.OrderStatusPendingApproval, stored.Status)
	assert.Equal(t, int64(1), f.countRows(t, &models.OrderHistory{}, "order_id = ?", order.ID))

	rejected, err := f.svc.Reject(context.Background(), *f.pm, order.ID, "wrong heads")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "wrong heads", *rejected.RejectionReason)

	var note models.Notification
	require.NoError(t, f.conn.Where("user_id = ? AND type = ?", f.tradie.ID, enums.NotificationTypeOrderRejected).First(&note).Error)
	assert.Contains(t, note.Message, "wrong heads")
}

func TestModifyRewritesQuantitiesAndResubmit(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)

	modified, err := f.svc.Modify(context.Background(), *f.pm, order.ID, ModifyInput{
		Items: []ModifyItem{{PartID: f.part.ID, Quantity: 5}},
		Notes: "need more",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusModified, modified.Status)
	require.NotNil(t, modified.Total)
	assert.True(t, modified.Total.Equal(decimal.NewFromInt(100)), "5 x 20, got %s", modified.Total)
	assert.Equal(t, 5, modified.Items[0].Quantity)
	assert.Equal(t, int64(1), f.countRows(t, &models.Notification{}, "user_id = ? AND type = ?", f.tradie.ID, enums.NotificationTypeOrderModified))

	_, err = f.svc.Resubmit(context.Background(), *f.pm, order.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "only the requester resubmits")

	again, err := f.svc.Resubmit(context.Background(), *f.tradie, order.ID, "looks right")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingApproval, again.Status)
	assert.Len(t, again.History, 3)
}

func TestModifyRejectsUnknownPartWithoutMutation(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)
	stranger := testsupport.MustPart(t, f.conn, "VALVE-1")

	_, err := f.svc.Modify(context.Background(), *f.pm, order.ID, ModifyInput{
		Items: []ModifyItem{{PartID: stranger.ID, Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Modify(context.Background(), *f.pm, order.ID, ModifyInput{
		Items: []ModifyItem{{PartID: f.part.ID, Quantity: 0}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, order.ID).Error)
	assert.Equal(t, enums.OrderStatusPendingApproval, stored.Status)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(60)))
}

func TestSupplierAdvancesFulfilmentInOrder(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)
	supplier := testsupport.MustUser(t, f.conn, enums.UserRoleSupplier)

	_, err := f.svc.AdvanceStatus(context.Background(), *supplier, order.ID, enums.OrderStatusProcessing, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "pending orders cannot be processed")

	_, err = f.svc.Approve(context.Background(), *f.pm, order.ID, "")
	require.NoError(t, err)

	queue, err := f.svc.ListQueue(context.Background(), ListFilters{})
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	assert.Equal(t, "Acme Fire", queue.Items[0].BusinessName)

	for _, next := range []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCompleted} {
		detail, err := f.svc.AdvanceStatus(context.Background(), *supplier, order.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, detail.Status)
	}
	assert.Equal(t, int64(3), f.countRows(t, &models.Notification{}, "user_id = ? AND type = ?", f.tradie.ID, enums.NotificationTypeOrderStatus))

	_, err = f.svc.AdvanceStatus(context.Background(), *supplier, order.ID, enums.OrderStatusApproved, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListsAreScoped(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t)
	otherTradie := testsupport.MustUser(t, f.conn, enums.UserRoleTradie, testsupport.WithBusiness(f.biz.ID), testsupport.Approved())

	mine, err := f.svc.ListMine(context.Background(), *f.tradie, ListFilters{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, order.ID, mine.Items[0].ID)
	assert.Nil(t, mine.Items[0].Total)
	assert.Equal(t, 1, mine.Items[0].ItemCount)
	require.NotNil(t, mine.Items[0].JobNumber)
	assert.Equal(t, "J-100", *mine.Items[0].JobNumber)

	theirs, err := f.svc.ListMine(context.Background(), *otherTradie, ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, theirs.Items)

	_, err = f.svc.Get(context.Background(), *otherTradie, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	pending, err := f.svc.ListCompany(context.Background(), *f.pm, ListFilters{Statuses: []enums.OrderStatus{enums.OrderStatusPendingApproval}})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	require.NotNil(t, pending.Items[0].Total)

	approved, err := f.svc.ListCompany(context.Background(), *f.pm, ListFilters{Statuses: []enums.OrderStatus{enums.OrderStatusApproved}})
	require.NoError(t, err)
	assert.Empty(t, approved.Items)
}
