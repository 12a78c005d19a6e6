package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/study-portal/internal/application"
	"github.com/example/study-portal/internal/persistence"
)

var (
	userCounter         uint64
	sessionCounter      uint64
	materialCounter     uint64
	announcementCounter uint64
)

var referenceTime = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture represents a deterministic account record that can be
// seeded through the persistence layer.
type UserFixture struct {
	ID                 string
	Username           string
	PasswordHash       string
	Role               application.Role
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic student fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           fmt.Sprintf("user-%03d", idx),
		Username:     fmt.Sprintf("student%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         application.RoleStudent,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithMustChangePassword sets the forced password change flag.
func WithMustChangePassword(must bool) UserOption {
	return func(f *UserFixture) {
		f.MustChangePassword = must
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:                 f.ID,
		Username:           f.Username,
		PasswordHash:       f.PasswordHash,
		Role:               string(f.Role),
		MustChangePassword: f.MustChangePassword,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Role      application.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session that expires two hours after creation.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Role:      application.RoleStudent,
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(application.DefaultSessionTTL),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser binds the session to the given user and role.
func WithSessionUser(userID string, role application.Role) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
		f.Role = role
	}
}

// WithSessionExpiry overrides the expiry.
func WithSessionExpiry(expires time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expires
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Role:      string(f.Role),
		CreatedAt: f.CreatedAt,
		ExpiresAt: f.ExpiresAt,
	}
}

// MaterialFixture represents deterministic material metadata.
type MaterialFixture struct {
	ID             string
	Title          string
	Description    string
	StoredFileName string
	UploaderID     string
	Type           application.MaterialType
	CreatedAt      time.Time
}

// MaterialOption configures the generated material fixture.
type MaterialOption func(*MaterialFixture)

// NewMaterialFixture returns a PDF material fixture with optional overrides.
func NewMaterialFixture(opts ...MaterialOption) MaterialFixture {
	idx := atomic.AddUint64(&materialCounter, 1)
	fixture := MaterialFixture{
		ID:             fmt.Sprintf("material-%03d", idx),
		Title:          fmt.Sprintf("Lecture %03d", idx),
		StoredFileName: fmt.Sprintf("stored-%03d.pdf", idx),
		UploaderID:     "admin-1",
		Type:           application.MaterialTypePDF,
		CreatedAt:      referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMaterialCreatedAt overrides the creation time.
func WithMaterialCreatedAt(t time.Time) MaterialOption {
	return func(f *MaterialFixture) {
		f.CreatedAt = t
	}
}

// Persistence returns the fixture as a persistence.Material value.
func (f MaterialFixture) Persistence() persistence.Material {
	return persistence.Material{
		ID:             f.ID,
		Title:          f.Title,
		Description:    f.Description,
		StoredFileName: f.StoredFileName,
		UploaderID:     f.UploaderID,
		Type:           string(f.Type),
		CreatedAt:      f.CreatedAt,
	}
}

// AnnouncementFixture represents a deterministic announcement.
type AnnouncementFixture struct {
	ID        string
	Message   string
	CreatorID string
	CreatedAt time.Time
}

// AnnouncementOption configures the generated announcement fixture.
type AnnouncementOption func(*AnnouncementFixture)

// NewAnnouncementFixture returns an announcement fixture with optional overrides.
func NewAnnouncementFixture(opts ...AnnouncementOption) AnnouncementFixture {
	idx := atomic.AddUint64(&announcementCounter, 1)
	fixture := AnnouncementFixture{
		ID:        fmt.Sprintf("announcement-%03d", idx),
		Message:   fmt.Sprintf("Notice %03d", idx),
		CreatorID: "admin-1",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAnnouncementCreator overrides the creator.
func WithAnnouncementCreator(userID string) AnnouncementOption {
	return func(f *AnnouncementFixture) {
		f.CreatorID = userID
	}
}

// WithAnnouncementMessage overrides the message.
func WithAnnouncementMessage(message string) AnnouncementOption {
	return func(f *AnnouncementFixture) {
		f.Message = message
	}
}

// Persistence returns the fixture as a persistence.Announcement value.
func (f AnnouncementFixture) Persistence() persistence.Announcement {
	return persistence.Announcement{
		ID:        f.ID,
		Message:   f.Message,
		CreatorID: f.CreatorID,
		CreatedAt: f.CreatedAt,
	}
}
