package invitations

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/email"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/internal/testsupport"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

type recordingNotifier struct {
	sent []notifications.Input
}

func (r *recordingNotifier) Notify(ctx context.Context, in notifications.Input) {
	r.sent = append(r.sent, in)
}

type recordingMail struct {
	reserveErr error
	sent       []email.Message
}

func (r *recordingMail) Reserve(ctx context.Context, recipient string) error {
	return r.reserveErr
}

func (r *recordingMail) Dispatch(ctx context.Context, msg email.Message) {
	r.sent = append(r.sent, msg)
}

type dispatched struct {
	tradieID uint
	action   memberships.Action
	effects  []memberships.Effect
}

type recordingEffects struct {
	calls []dispatched
}

func (r *recordingEffects) Dispatch(ctx context.Context, tradie models.User, t memberships.Transition, outcome *memberships.Outcome) {
	r.calls = append(r.calls, dispatched{tradieID: tradie.ID, action: t.Action, effects: outcome.Effects})
}

type fixture struct {
	conn    *gorm.DB
	svc     *service
	notify  *recordingNotifier
	mail    *recordingMail
	effects *recordingEffects
	biz     *models.Business
	pm      *models.User
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testsupport.OpenDB(t)
	f := &fixture{
		conn:    conn,
		notify:  &recordingNotifier{},
		mail:    &recordingMail{},
		effects: &recordingEffects{},
		now:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(Deps{
		Repo:        NewRepository(conn),
		Memberships: memberships.NewRepository(conn),
		Tx:          db.Wrap(conn),
		Users:       users.NewRepository(conn),
		Businesses:  businesses.NewRepository(conn),
		Notify:      f.notify,
		Mail:        f.mail,
		Effects:     f.effects,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
	}, Options{BaseURL: "https://portal.example.com/"})
	require.NoError(t, err)
	f.svc = svc.(*service)
	f.svc.now = func() time.Time { return f.now }

	f.biz = testsupport.MustBusiness(t, conn, "Acme Fire", enums.PriceTierT2)
	f.pm = testsupport.MustUser(t, conn, enums.UserRoleProjectManager, testsupport.WithBusiness(f.biz.ID), testsupport.Approved())
	return f
}

func (f *fixture) invitation(t *testing.T, id uint) models.TradieInvitation {
	t.Helper()
	var inv models.TradieInvitation
	require.NoError(t, f.conn.First(&inv, id).Error)
	return inv
}

func TestInviteNewTradieEmailsRegistrationLink(t *testing.T) {
	f := newFixture(t)

	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "  New.Tradie@Example.com ", Message: "join us"})
	require.NoError(t, err)
	assert.Equal(t, "new.tradie@example.com", dto.Email)
	assert.Equal(t, enums.InvitationStatusPending, dto.Status)
	assert.Equal(t, "Acme Fire", dto.BusinessName)
	assert.True(t, dto.ExpiresAt.Equal(f.now.Add(7*24*time.Hour)))

	inv := f.invitation(t, dto.ID)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "new.tradie@example.com", f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Text, "https://portal.example.com/register?")
	assert.Contains(t, f.mail.sent[0].Text, inv.InvitationToken.String())
	assert.Empty(t, f.notify.sent)
}

func TestInviteExistingTradieNotifiesInApp(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.conn, enums.UserRoleTradie)

	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: tradie.Email})
	require.NoError(t, err)

	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, tradie.ID, f.notify.sent[0].UserID)
	assert.Equal(t, enums.NotificationTypeInvitationReceived, f.notify.sent[0].Type)
	assert.Equal(t, notifications.InvitationRef{InvitationID: dto.ID}, f.notify.sent[0].Related)
	assert.Empty(t, f.mail.sent)
}

func TestInviteRejectsApprovedMemberAndNonTradies(t *testing.T) {
	f := newFixture(t)
	member := testsupport.MustUser(t, f.conn, enums.UserRoleTradie, testsupport.WithBusiness(f.biz.ID), testsupport.Approved())
	supplier := testsupport.MustUser(t, f.conn, enums.UserRoleSupplier)

	_, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: member.Email})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: supplier.Email})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestInviteInvalidEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "not-an-email"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDuplicatePendingInvitationConflicts(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "DUP@example.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestExpiredPendingInvitationIsReissued(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "late@example.com"})
	require.NoError(t, err)

	f.now = f.now.Add(8 * 24 * time.Hour)
	second, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "late@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, enums.InvitationStatusCancelled, f.invitation(t, first.ID).Status)
	assert.Equal(t, enums.InvitationStatusPending, f.invitation(t, second.ID).Status)
}

func TestDailyCapRefusesFiftyFirstInvitation(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, f.conn.Create(&models.TradieInvitation{
			BusinessID:       f.biz.ID,
			ProjectManagerID: f.pm.ID,
			Email:            fmt.Sprintf("bulk%d@example.com", i),
			InvitationToken:  uuid.New(),
			TokenExpiry:      f.now.Add(24 * time.Hour),
			Status:           enums.InvitationStatusPending,
			CreatedAt:        f.now.Add(-time.Hour),
		}).Error)
	}

	_, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "one-more@example.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))
	assert.Empty(t, f.mail.sent)

	var count int64
	require.NoError(t, f.conn.Model(&models.TradieInvitation{}).Count(&count).Error)
	assert.EqualValues(t, 50, count)
}

func TestDailyCapCountsOnlyTrailingWindow(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, f.conn.Create(&models.TradieInvitation{
			BusinessID:       f.biz.ID,
			ProjectManagerID: f.pm.ID,
			Email:            fmt.Sprintf("old%d@example.com", i),
			InvitationToken:  uuid.New(),
			TokenExpiry:      f.now,
			Status:           enums.InvitationStatusCancelled,
			CreatedAt:        f.now.Add(-25 * time.Hour),
		}).Error)
	}

	_, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "fresh@example.com"})
	require.NoError(t, err)
}

func TestEmailQuotaRefusalCreatesNoInvitation(t *testing.T) {
	f := newFixture(t)
	f.mail.reserveErr = pkgerrors.New(pkgerrors.CodeRateLimit, "too many emails")

	_, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "quota@example.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))

	var count int64
	require.NoError(t, f.conn.Model(&models.TradieInvitation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckDistinguishesInvalidAndExpired(t *testing.T) {
	f := newFixture(t)
	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "check@example.com"})
	require.NoError(t, err)
	token := f.invitation(t, dto.ID).InvitationToken.String()

	check, err := f.svc.Check(context.Background(), token, "check@example.com")
	require.NoError(t, err)
	assert.True(t, check.Valid)
	assert.Equal(t, "Acme Fire", check.BusinessName)

	cases := []struct {
		name    string
		token   string
		email   string
		outcome Outcome
	}{
		{name: "garbage", token: "nope", outcome: OutcomeInvalid},
		{name: "unknown", token: uuid.NewString(), outcome: OutcomeInvalid},
		{name: "wrong email", token: token, email: "other@example.com", outcome: OutcomeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Check(context.Background(), tc.token, tc.email)
			require.Error(t, err)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
			assert.Equal(t, tc.outcome, appErr.Details().(map[string]any)["outcome"])
		})
	}

	f.now = f.now.Add(7 * 24 * time.Hour)
	_, err = f.svc.Check(context.Background(), token, "check@example.com")
	require.Error(t, err)
	assert.Equal(t, OutcomeExpired, pkgerrors.As(err).Details().(map[string]any)["outcome"])
	assert.Contains(t, pkgerrors.As(err).Message(), "expired")
}

func TestAcceptApprovesMembershipAndResolvesInvitation(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.conn, enums.UserRoleTradie)
	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: tradie.Email})
	require.NoError(t, err)

	listed, err := f.svc.ListForTradie(context.Background(), *tradie)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	accepted, err := f.svc.Accept(context.Background(), *tradie, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvitationStatusAccepted, accepted.Status)

	var stored models.User
	require.NoError(t, f.conn.First(&stored, tradie.ID).Error)
	assert.True(t, stored.IsApproved)
	require.NotNil(t, stored.BusinessID)
	assert.Equal(t, f.biz.ID, *stored.BusinessID)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, f.pm.ID, *stored.ApprovedBy)
	assert.Equal(t, enums.InvitationStatusAccepted, f.invitation(t, dto.ID).Status)

	require.Len(t, f.effects.calls, 1)
	assert.Equal(t, memberships.ActionAcceptInvitation, f.effects.calls[0].action)
	assert.Equal(t, []memberships.Effect{memberships.EffectNotifyInviter}, f.effects.calls[0].effects)

	_, err = f.svc.Accept(context.Background(), *tradie, dto.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestDeclineNotifiesInviter(t *testing.T) {
	f := newFixture(t)
	tradie := testsupport.MustUser(t, f.conn, enums.UserRoleTradie)
	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: tradie.Email})
	require.NoError(t, err)
	f.notify.sent = nil

	require.NoError(t, f.svc.Decline(context.Background(), *tradie, dto.ID))
	assert.Equal(t, enums.InvitationStatusRejected, f.invitation(t, dto.ID).Status)
	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, f.pm.ID, f.notify.sent[0].UserID)
	assert.Equal(t, enums.NotificationTypeInvitationRejected, f.notify.sent[0].Type)

	var stored models.User
	require.NoError(t, f.conn.First(&stored, tradie.ID).Error)
	assert.Nil(t, stored.BusinessID)
}

func TestAcceptByOtherTradieIsNotFound(t *testing.T) {
	f := newFixture(t)
	invitee := testsupport.MustUser(t, f.conn, enums.UserRoleTradie)
	other := testsupport.MustUser(t, f.conn, enums.UserRoleTradie)
	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: invitee.Email})
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), *other, dto.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRedeemDuringRegistration(t *testing.T) {
	f := newFixture(t)
	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "signup@example.com"})
	require.NoError(t, err)
	token := f.invitation(t, dto.ID).InvitationToken.String()

	var redemption *Redemption
	err = db.Wrap(f.conn).WithTx(context.Background(), func(tx *gorm.DB) error {
		user := &models.User{
			Email:        "signup@example.com",
			PasswordHash: "hash",
			FirstName:    "New",
			LastName:     "Tradie",
			Role:         enums.UserRoleTradie,
			Status:       enums.UserStatusUnassigned,
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		var err error
		redemption, err = f.svc.Redeem(context.Background(), tx, user, token)
		return err
	})
	require.NoError(t, err)
	f.svc.Complete(context.Background(), redemption)

	var stored models.User
	require.NoError(t, f.conn.Where("email = ?", "signup@example.com").First(&stored).Error)
	assert.True(t, stored.IsApproved)
	assert.Equal(t, f.biz.ID, *stored.BusinessID)
	require.Len(t, f.effects.calls, 1)
}

func TestCancelOnlyWithinBusiness(t *testing.T) {
	f := newFixture(t)
	dto, err := f.svc.Invite(context.Background(), *f.pm, InviteInput{Email: "cancel@example.com"})
	require.NoError(t, err)

	otherBiz := testsupport.MustBusiness(t, f.conn, "Other Co", enums.PriceTierT1)
	otherPM := testsupport.MustUser(t, f.conn, enums.UserRoleProjectManager, testsupport.WithBusiness(otherBiz.ID), testsupport.Approved())
	assert.True(t, pkgerrors.IsCode(f.svc.Cancel(context.Background(), *otherPM, dto.ID), pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.Cancel(context.Background(), *f.pm, dto.ID))
	assert.True(t, pkgerrors.IsCode(f.svc.Cancel(context.Background(), *f.pm, dto.ID), pkgerrors.CodeStateConflict))

	list, err := f.svc.ListForBusiness(context.Background(), *f.pm)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, enums.InvitationStatusCancelled, list[0].Status)
}
