package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/example/study-portal/internal/application"
	"github.com/example/study-portal/internal/persistence"
	"github.com/example/study-portal/internal/storage"
)

// mapStoreError translates persistence sentinels into their application
// counterparts so services never import the persistence package.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	default:
		return err
	}
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.UserCredentials{}, mapStoreError(err)
	}
	return toApplicationCredentials(stored), nil
}

func (a *userStoreAdapter) GetUserByUsername(ctx context.Context, username string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.UserCredentials{}, mapStoreError(err)
	}
	return toApplicationCredentials(stored), nil
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, creds application.UserCredentials) error {
	return mapStoreError(a.repo.CreateUser(ctx, toPersistenceUser(creds)))
}

func (a *userStoreAdapter) UpdateUser(ctx context.Context, creds application.UserCredentials) error {
	return mapStoreError(a.repo.UpdateUser(ctx, toPersistenceUser(creds)))
}

func (a *userStoreAdapter) EnsureUser(ctx context.Context, creds application.UserCredentials) (bool, error) {
	created, err := a.repo.EnsureUser(ctx, toPersistenceUser(creds))
	return created, mapStoreError(err)
}

func (a *userStoreAdapter) ListUsersByRole(ctx context.Context, role application.Role) ([]application.User, error) {
	stored, err := a.repo.ListUsersByRole(ctx, string(role))
	if err != nil {
		return nil, mapStoreError(err)
	}
	users := make([]application.User, 0, len(stored))
	for _, u := range stored {
		users = append(users, toApplicationCredentials(u).User)
	}
	return users, nil
}

func toApplicationCredentials(user persistence.User) application.UserCredentials {
	return application.UserCredentials{
		User: application.User{
			ID:                 user.ID,
			Username:           user.Username,
			Role:               application.Role(user.Role),
			MustChangePassword: user.MustChangePassword,
			CreatedAt:          user.CreatedAt,
			UpdatedAt:          user.UpdatedAt,
		},
		PasswordHash: user.PasswordHash,
	}
}

func toPersistenceUser(creds application.UserCredentials) persistence.User {
	return persistence.User{
		ID:                 creds.User.ID,
		Username:           creds.User.Username,
		PasswordHash:       creds.PasswordHash,
		Role:               string(creds.User.Role),
		MustChangePassword: creds.User.MustChangePassword,
		CreatedAt:          creds.User.CreatedAt,
		UpdatedAt:          creds.User.UpdatedAt,
	}
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) error {
	return mapStoreError(a.repo.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Role:      string(session.Role),
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}))
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return application.Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Role:      application.Role(stored.Role),
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

func (a *sessionStoreAdapter) DeleteSession(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteSession(ctx, id))
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStoreError(a.repo.DeleteExpiredSessions(ctx, reference))
}

type materialStoreAdapter struct {
	repo persistence.MaterialRepository
}

func newMaterialStoreAdapter(repo persistence.MaterialRepository) *materialStoreAdapter {
	return &materialStoreAdapter{repo: repo}
}

func (a *materialStoreAdapter) CreateMaterial(ctx context.Context, material application.Material) error {
	return mapStoreError(a.repo.CreateMaterial(ctx, persistence.Material{
		ID:             material.ID,
		Title:          material.Title,
		Description:    material.Description,
		StoredFileName: material.StoredFileName,
		UploaderID:     material.UploaderID,
		Type:           string(material.Type),
		CreatedAt:      material.CreatedAt,
	}))
}

func (a *materialStoreAdapter) GetMaterial(ctx context.Context, id string) (application.Material, error) {
	stored, err := a.repo.GetMaterial(ctx, id)
	if err != nil {
		return application.Material{}, mapStoreError(err)
	}
	return toApplicationMaterial(stored), nil
}

func (a *materialStoreAdapter) ListMaterials(ctx context.Context) ([]application.Material, error) {
	stored, err := a.repo.ListMaterials(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	materials := make([]application.Material, 0, len(stored))
	for _, m := range stored {
		materials = append(materials, toApplicationMaterial(m))
	}
	return materials, nil
}

func toApplicationMaterial(material persistence.Material) application.Material {
	return application.Material{
		ID:             material.ID,
		Title:          material.Title,
		Description:    material.Description,
		StoredFileName: material.StoredFileName,
		UploaderID:     material.UploaderID,
		Type:           application.MaterialType(material.Type),
		CreatedAt:      material.CreatedAt,
	}
}

type announcementStoreAdapter struct {
	repo persistence.AnnouncementRepository
}

func newAnnouncementStoreAdapter(repo persistence.AnnouncementRepository) *announcementStoreAdapter {
	return &announcementStoreAdapter{repo: repo}
}

func (a *announcementStoreAdapter) CreateAnnouncement(ctx context.Context, announcement application.Announcement) error {
	return mapStoreError(a.repo.CreateAnnouncement(ctx, persistence.Announcement{
		ID:        announcement.ID,
		Message:   announcement.Message,
		CreatorID: announcement.CreatorID,
		CreatedAt: announcement.CreatedAt,
	}))
}

func (a *announcementStoreAdapter) ListAnnouncements(ctx context.Context) ([]application.AnnouncementView, error) {
	stored, err := a.repo.ListAnnouncements(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	views := make([]application.AnnouncementView, 0, len(stored))
	for _, s := range stored {
		views = append(views, application.AnnouncementView{
			Announcement: application.Announcement{
				ID:        s.ID,
				Message:   s.Message,
				CreatorID: s.CreatorID,
				CreatedAt: s.CreatedAt,
			},
			CreatorUsername: s.CreatorUsername,
		})
	}
	return views, nil
}

type fileStoreAdapter struct {
	files *storage.FileStore
}

func newFileStoreAdapter(files *storage.FileStore) *fileStoreAdapter {
	return &fileStoreAdapter{files: files}
}

func (a *fileStoreAdapter) Save(ctx context.Context, content io.Reader, ext string) (string, int64, error) {
	name, size, err := a.files.Save(ctx, content, ext)
	if errors.Is(err, storage.ErrTooLarge) {
		return "", 0, application.ErrContentTooLarge
	}
	return name, size, err
}

func (a *fileStoreAdapter) Open(name string) (application.MaterialFile, error) {
	f, info, err := a.files.Open(name)
	if err != nil {
		if errors.Is(err, storage.ErrMissing) || errors.Is(err, storage.ErrInvalidName) {
			return application.MaterialFile{}, fmt.Errorf("%w: %v", application.ErrFileMissing, err)
		}
		return application.MaterialFile{}, err
	}
	return application.MaterialFile{Content: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (a *fileStoreAdapter) Remove(name string) error {
	return a.files.Remove(name)
}
