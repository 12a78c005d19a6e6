package persistence

import (
	"context"
	"time"
)

// UserRepository exposes the operations needed for portal accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsersByRole(ctx context.Context, role string) ([]User, error)
	// EnsureUser inserts user unless the username is already taken and reports
	// whether a row was created.
	EnsureUser(ctx context.Context, user User) (bool, error)
}

// SessionRepository stores server-side session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// MaterialRepository stores material metadata. Lists are newest first.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, material Material) error
	GetMaterial(ctx context.Context, id string) (Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
}

// AnnouncementRepository stores announcements. Lists are newest first.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, announcement Announcement) error
	ListAnnouncements(ctx context.Context) ([]AnnouncementWithCreator, error)
}
