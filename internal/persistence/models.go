package persistence

import "time"

// User represents a portal account. Role is either "student" or "admin".
type User struct {
	ID                 string
	Username           string
	PasswordHash       string
	Role               string
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Session represents a server-side login session. Role is the value captured at login.
type Session struct {
	ID        string
	UserID    string
	Role      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Material represents an uploaded study file. StoredFileName names the file in the
// content directory and is unrelated to Title.
type Material struct {
	ID             string
	Title          string
	Description    string
	StoredFileName string
	UploaderID     string
	Type           string
	CreatedAt      time.Time
}

// Announcement represents a message posted by an administrator.
type Announcement struct {
	ID        string
	Message   string
	CreatorID string
	CreatedAt time.Time
}

// AnnouncementWithCreator joins an announcement with its creator's username.
// CreatorUsername is empty when the creator no longer exists.
type AnnouncementWithCreator struct {
	Announcement
	CreatorUsername string
}
