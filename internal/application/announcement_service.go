package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AnnouncementRepository captures the persistence operations for announcements.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, announcement Announcement) error
	ListAnnouncements(ctx context.Context) ([]AnnouncementView, error)
}

// AnnouncementService posts and lists announcements.
type AnnouncementService struct {
	announcements AnnouncementRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewAnnouncementService wires dependencies for the announcement service.
func NewAnnouncementService(announcements AnnouncementRepository, idGenerator func() string, now func() time.Time) *AnnouncementService {
	return NewAnnouncementServiceWithLogger(announcements, idGenerator, now, nil)
}

// NewAnnouncementServiceWithLogger wires dependencies with a specified logger.
func NewAnnouncementServiceWithLogger(announcements AnnouncementRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AnnouncementService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AnnouncementService{announcements: announcements, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *AnnouncementService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnnouncementService", operation, attrs...)
}

// Post escapes the message and stores it. The 2 to 500 character bound applies
// to the escaped text.
func (s *AnnouncementService) Post(ctx context.Context, params PostAnnouncementParams) (announcement Announcement, err error) {
	if s == nil || s.announcements == nil {
		err = fmt.Errorf("announcement repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Post", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "announcement post failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("announcement_id", announcement.ID).InfoContext(ctx, "announcement posted")
	}()

	if err = Authorize(params.Principal, AccessAdmin); err != nil {
		return
	}

	message := escapeText(params.Message)
	if vErr := validateInput(announcementShape{Message: message}, "Invalid message."); vErr != nil {
		err = vErr
		return
	}

	candidate := Announcement{
		ID:        s.idGenerator(),
		Message:   message,
		CreatorID: params.Principal.UserID,
		CreatedAt: s.now(),
	}
	if err = s.announcements.CreateAnnouncement(ctx, candidate); err != nil {
		return
	}
	announcement = candidate
	return
}

// List returns every announcement newest first. It is public.
func (s *AnnouncementService) List(ctx context.Context) ([]AnnouncementView, error) {
	if s == nil || s.announcements == nil {
		return nil, fmt.Errorf("announcement repository not configured")
	}
	views, err := s.announcements.ListAnnouncements(ctx)
	if err != nil {
		s.loggerWith(ctx, "List").ErrorContext(ctx, "failed to list announcements", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	if views == nil {
		views = []AnnouncementView{}
	}
	return views, nil
}
