package sqlite

import (
	"context"

	"github.com/example/study-portal/internal/persistence"
)

const materialColumns = `id, title, description, stored_file_name, uploader_id, type, created_at`

// MaterialRepository implements persistence.MaterialRepository using SQLite
type MaterialRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMaterialRepository creates a new SQLite material repository
func NewMaterialRepository(pool *ConnectionPool) *MaterialRepository {
	return &MaterialRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateMaterial inserts material metadata.
func (r *MaterialRepository) CreateMaterial(ctx context.Context, material persistence.Material) error {
	if material.ID == "" || material.StoredFileName == "" || material.UploaderID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO materials (` + materialColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		material.ID,
		material.Title,
		material.Description,
		material.StoredFileName,
		material.UploaderID,
		material.Type,
		formatTime(material.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetMaterial retrieves material metadata by id.
func (r *MaterialRepository) GetMaterial(ctx context.Context, id string) (persistence.Material, error) {
	if id == "" {
		return persistence.Material{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id)
	return r.scanMaterial(row)
}

// ListMaterials returns all materials, newest first.
func (r *MaterialRepository) ListMaterials(ctx context.Context) ([]persistence.Material, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	materials := make([]persistence.Material, 0)
	for rows.Next() {
		material, err := r.scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, material)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return materials, nil
}

func (r *MaterialRepository) scanMaterial(row rowScanner) (persistence.Material, error) {
	var material persistence.Material
	var createdAt string
	err := row.Scan(
		&material.ID,
		&material.Title,
		&material.Description,
		&material.StoredFileName,
		&material.UploaderID,
		&material.Type,
		&createdAt,
	)
	if err != nil {
		return persistence.Material{}, r.mapper.MapError(err)
	}
	if material.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Material{}, err
	}
	return material, nil
}
