package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/study-portal/internal/persistence"
)

// AnnouncementRepository implements persistence.AnnouncementRepository using SQLite
type AnnouncementRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAnnouncementRepository creates a new SQLite announcement repository
func NewAnnouncementRepository(pool *ConnectionPool) *AnnouncementRepository {
	return &AnnouncementRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAnnouncement inserts an announcement.
func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, announcement persistence.Announcement) error {
	if announcement.ID == "" || announcement.CreatorID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		`INSERT INTO announcements (id, message, creator_id, created_at) VALUES (?, ?, ?, ?)`,
		announcement.ID,
		announcement.Message,
		announcement.CreatorID,
		formatTime(announcement.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// ListAnnouncements returns announcements newest first with the creator's
// username resolved. Creators that no longer exist resolve to an empty name.
func (r *AnnouncementRepository) ListAnnouncements(ctx context.Context) ([]persistence.AnnouncementWithCreator, error) {
	query := `
		SELECT a.id, a.message, a.creator_id, a.created_at, u.username
		FROM announcements a
		LEFT JOIN users u ON u.id = a.creator_id
		ORDER BY a.created_at DESC, a.rowid DESC
	`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	announcements := make([]persistence.AnnouncementWithCreator, 0)
	for rows.Next() {
		var item persistence.AnnouncementWithCreator
		var createdAt string
		var username sql.NullString
		if err := rows.Scan(&item.ID, &item.Message, &item.CreatorID, &createdAt, &username); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if item.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		item.CreatorUsername = username.String
		announcements = append(announcements, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return announcements, nil
}
