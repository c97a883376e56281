package notifications

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/sprinklerhub-backend/pkg/db/models"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/pagination"
)

// Sender inserts a single in-app notification. Order transitions call it on a
// transaction-bound sender so the insert commits with the status change.
type Sender interface {
	Send(ctx context.Context, in Input) error
}

// Service defines notification delivery and list/read operations.
type Service interface {
	Sender
	WithTx(tx *gorm.DB) Sender
	Notify(ctx context.Context, in Input)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

// Input describes one notification to a user.
type Input struct {
	UserID  uint
	Type    enums.NotificationType
	Title   string
	Message string
	Related Related
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uint
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// Item is the API shape of a notification.
type Item struct {
	ID          uint                   `json:"id"`
	Type        enums.NotificationType `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	RelatedType *string                `json:"relatedType,omitempty"`
	RelatedID   *uint                  `json:"relatedId,omitempty"`
	Link        string                 `json:"link,omitempty"`
	IsRead      bool                   `json:"isRead"`
	ReadAt      *time.Time             `json:"readAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult = pagination.Page[Item]

// NewService wires notifications dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

type txSender struct {
	repo Repository
}

func (s *service) WithTx(tx *gorm.DB) Sender {
	return &txSender{repo: s.repo.WithTx(tx)}
}

func (t *txSender) Send(ctx context.Context, in Input) error {
	return send(ctx, t.repo, in)
}

func (s *service) Send(ctx context.Context, in Input) error {
	return send(ctx, s.repo, in)
}

func send(ctx context.Context, repo Repository, in Input) error {
	if in.UserID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification recipient required")
	}
	if !in.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid notification type %q", in.Type)
	}
	relatedType, relatedID := encodeRelated(in.Related)
	row := &models.Notification{
		UserID:      in.UserID,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Message:     strings.TrimSpace(in.Message),
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}
	if err := repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

// Notify is fire-and-forget: failures are logged and never surface.
func (s *service) Notify(ctx context.Context, in Input) {
	if err := s.Send(ctx, in); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"notification_type": in.Type,
			"recipient_id":      in.UserID,
		})
		s.logg.Error(logCtx, "notification.send_failed", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	page := pagination.Trim(items, params.Limit, func(i Item) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	})
	return &page, nil
}

func toItem(row models.Notification) Item {
	return Item{
		ID:          row.ID,
		Type:        row.Type,
		Title:       row.Title,
		Message:     row.Message,
		RelatedType: row.RelatedType,
		RelatedID:   row.RelatedID,
		Link:        Link(decodeRelated(row.RelatedType, row.RelatedID)),
		IsRead:      row.IsRead,
		ReadAt:      row.ReadAt,
		CreatedAt:   row.CreatedAt,
	}
}

func (s *service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if userID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
