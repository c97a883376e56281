package memberships

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/email"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/internal/testsupport"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifications.Input
}

func (r *recordingNotifier) Notify(ctx context.Context, in notifications.Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, in)
}

type recordingMail struct {
	reserveErr error
	reserved   []string
	sent       []email.Message
}

func (r *recordingMail) Reserve(ctx context.Context, recipient string) error {
	r.reserved = append(r.reserved, recipient)
	return r.reserveErr
}

func (r *recordingMail) Dispatch(ctx context.Context, msg email.Message) {
	r.sent = append(r.sent, msg)
}

type fixture struct {
	svc    Service
	repo   *Repository
	notify *recordingNotifier
	mail   *recordingMail
	pm     *models.User
	biz    *models.Business
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testsupport.OpenDB(t)
	biz := testsupport.MustBusiness(t, conn, "Acme Fire", enums.PriceTierT2)
	pm := testsupport.MustUser(t, conn, enums.UserRoleProjectManager, testsupport.WithBusiness(biz.ID), testsupport.Approved())

	notify := &recordingNotifier{}
	mail := &recordingMail{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	dispatcher, err := NewDispatcher(users.NewRepository(conn), businesses.NewRepository(conn), notify, mail, logg)
	require.NoError(t, err)
	repo := NewRepository(conn)
	svc, err := NewService(repo, dispatcher)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, notify: notify, mail: mail, pm: pm, biz: biz}
}

func TestApprovePendingTradie(t *testing.T) {
	f := newFixture(t)
	conn := f.repo.db
	tradie := testsupport.MustUser(t, conn, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))

	dto, err := f.svc.Approve(context.Background(), *f.pm, tradie.ID)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, dto.Membership)

	stored, err := f.repo.FindUser(context.Background(), tradie.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)
	assert.Equal(t, enums.UserStatusActive, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, f.pm.ID, *stored.ApprovedBy)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, enums.NotificationTypeMembershipApproved, f.notify.sent[0].Type)
	assert.Equal(t, tradie.ID, f.notify.sent[0].UserID)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, tradie.Email, f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Subject, "Acme Fire")
}

func TestApproveAlreadyApprovedIsStateConflict(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.repo.db, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.Approved())

	_, err := f.svc.Approve(context.Background(), *f.pm, tradie.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, f.notify.sent)
	assert.Empty(t, f.mail.sent)
}

func TestRejectClearsBusinessAndCarriesReason(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.repo.db, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))

	dto, err := f.svc.Reject(context.Background(), *f.pm, tradie.ID, "  not on our books ")
	require.NoError(t, err)
	assert.Equal(t, StateIndependent, dto.Membership)

	stored, err := f.repo.FindUser(context.Background(), tradie.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BusinessID)
	assert.Equal(t, enums.UserStatusRejected, stored.Status)

	require.Len(t, f.notify.sent, 1)
	assert.Contains(t, f.notify.sent[0].Message, "not on our books")
	require.Len(t, f.mail.sent, 1)
	assert.Contains(t, f.mail.sent[0].Text, "Reason: not on our books")
}

func TestRemoveKeepsBusinessAndRevokesApproval(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.repo.db, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.Approved())

	dto, err := f.svc.Remove(context.Background(), *f.pm, tradie.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, dto.Membership)

	list, err := f.svc.ListTradies(context.Background(), f.biz.ID)
	require.NoError(t, err)
	require.Len(t, list.Removed, 1)
	assert.Equal(t, tradie.ID, list.Removed[0].ID)
	assert.Empty(t, list.Approved)
	assert.Equal(t, enums.NotificationTypeMembershipRemoved, f.notify.sent[0].Type)
}

func TestDecisionOnOtherCompanyTradieIsNotFound(t *testing.T) {
	f := newFixture(t)
	other := testsupport.MustBusiness(t, f.repo.db, "Other Co", enums.PriceTierT3)
	tradie := testsupport.MustUser(t, f.repo.db, enums.UserRoleTradie,
		testsupport.WithBusiness(other.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))

	_, err := f.svc.Approve(context.Background(), *f.pm, tradie.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	stored, err := f.repo.FindUser(context.Background(), tradie.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsApproved)
}

func TestListTradiesGroupsByState(t *testing.T) {
	f := newFixture(t)
	db := f.repo.db
	pending := testsupport.MustUser(t, db, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))
	contractor := testsupport.MustUser(t, db, enums.UserRoleContractor,
		testsupport.WithBusiness(f.biz.ID), testsupport.Approved())
	testsupport.MustUser(t, db, enums.UserRoleTradie)

	list, err := f.svc.ListTradies(context.Background(), f.biz.ID)
	require.NoError(t, err)
	require.Len(t, list.Pending, 1)
	assert.Equal(t, pending.ID, list.Pending[0].ID)
	require.Len(t, list.Approved, 1)
	assert.Equal(t, contractor.ID, list.Approved[0].ID)
	assert.Empty(t, list.Removed)
}

func TestExecuteRefusesStaleRow(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.repo.db, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))

	stale := *tradie
	_, err := Execute(context.Background(), f.repo, tradie, Transition{Action: ActionApprove, BusinessID: f.biz.ID, ActorID: f.pm.ID}, fixedNow)
	require.NoError(t, err)

	_, err = Execute(context.Background(), f.repo, &stale, Transition{Action: ActionReject, BusinessID: f.biz.ID, ActorID: f.pm.ID}, fixedNow)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestEmailQuotaRefusalSkipsDelivery(t *testing.T) {
	f := newFixture(t)
	f.mail.reserveErr = pkgerrors.New(pkgerrors.CodeRateLimit, "slow down")
	tradie := testsupport.MustUser(t, f.repo.db, enums.UserRoleTradie,
		testsupport.WithBusiness(f.biz.ID), testsupport.WithStatus(enums.UserStatusPendingInvitation))

	_, err := f.svc.Approve(context.Background(), *f.pm, tradie.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tradie.Email}, f.mail.reserved)
	assert.Empty(t, f.mail.sent)
	assert.Len(t, f.notify.sent, 1)
}
