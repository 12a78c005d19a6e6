package application

import (
	"io"
	"time"
)

// Role identifies the privilege class of an account.
type Role string

const (
	// RoleStudent can browse announcements and materials.
	RoleStudent Role = "student"
	// RoleAdmin can additionally manage students, announcements, and materials.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Principal represents the authenticated user invoking a service method. The
// zero value is an anonymous caller. Role is the snapshot taken at login.
type Principal struct {
	UserID string
	Role   Role
}

// Authenticated reports whether the principal carries a session.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// IsAdmin reports whether the principal's session role is admin.
func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == RoleAdmin
}

// User represents a portal account exposed by the application services.
type User struct {
	ID                 string
	Username           string
	Role               Role
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents a server-side session issued at login. It never carries
// the forced password change flag.
type Session struct {
	ID        string
	UserID    string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Principal returns the principal bound to the session.
func (s Session) Principal() Principal {
	return Principal{UserID: s.UserID, Role: s.Role}
}

// LoginParams captures the data required to authenticate a user.
type LoginParams struct {
	Username string
	Password string
}

// LoginResult captures the outcome of a successful login.
type LoginResult struct {
	Session            Session
	Role               Role
	MustChangePassword bool
}

// ChangePasswordParams captures a self-service password change.
type ChangePasswordParams struct {
	Principal   Principal
	OldPassword string
	NewPassword string
}

// WhoAmIResult describes the caller. Role comes from the session snapshot while
// Username and MustChangePassword are read from the current user record.
type WhoAmIResult struct {
	LoggedIn           bool
	Role               Role
	Username           string
	MustChangePassword bool
}

// CreateStudentParams wraps the data required to create a student account.
type CreateStudentParams struct {
	Principal Principal
	Username  string
	Password  string
}

// ResetStudentPasswordParams wraps the data required to reset a student's password.
type ResetStudentPasswordParams struct {
	Principal   Principal
	Username    string
	NewPassword string
}

// MaterialType is the canonical kind of an uploaded file.
type MaterialType string

const (
	MaterialTypePDF  MaterialType = "pdf"
	MaterialTypeText MaterialType = "text"
)

// Extension returns the file extension, including the dot, for the type.
func (t MaterialType) Extension() string {
	if t == MaterialTypePDF {
		return ".pdf"
	}
	return ".txt"
}

// Material represents uploaded study material. Title and Description are stored
// HTML-escaped.
type Material struct {
	ID             string
	Title          string
	Description    string
	StoredFileName string
	UploaderID     string
	Type           MaterialType
	CreatedAt      time.Time
}

// UploadMaterialParams wraps the data required to upload a material. Size is the
// client declared length of Content.
type UploadMaterialParams struct {
	Principal   Principal
	Title       string
	Description string
	MimeType    string
	Size        int64
	Content     io.Reader
}

// MaterialFile is an open stored file.
type MaterialFile struct {
	Content io.ReadSeekCloser
	Size    int64
	ModTime time.Time
}

// MaterialDownload is the result of opening a material for download. FileName
// is derived from the title and the type's extension.
type MaterialDownload struct {
	Material Material
	File     MaterialFile
	FileName string
}

// Announcement represents a message posted by an administrator. Message is
// stored HTML-escaped.
type Announcement struct {
	ID        string
	Message   string
	CreatorID string
	CreatedAt time.Time
}

// AnnouncementView is an announcement with its creator's username resolved.
type AnnouncementView struct {
	Announcement
	CreatorUsername string
}

// PostAnnouncementParams wraps the data required to post an announcement.
type PostAnnouncementParams struct {
	Principal Principal
	Message   string
}
