package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"
)

// DefaultMaxUploadBytes is the upload ceiling applied when none is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// MaterialRepository captures the persistence operations for material metadata.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, material Material) error
	GetMaterial(ctx context.Context, id string) (Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
}

// MaterialFileStore persists uploaded file content. Open returns ErrFileMissing
// for names that no longer exist; Save returns ErrContentTooLarge when content
// exceeds the store's ceiling.
type MaterialFileStore interface {
	Save(ctx context.Context, content io.Reader, ext string) (string, int64, error)
	Open(name string) (MaterialFile, error)
	Remove(name string) error
}

var materialTypesByMIME = map[string]MaterialType{
	"application/pdf": MaterialTypePDF,
	"text/plain":      MaterialTypeText,
}

// MaterialService validates uploads and gates access to stored material.
type MaterialService struct {
	materials   MaterialRepository
	files       MaterialFileStore
	idGenerator func() string
	now         func() time.Time
	maxBytes    int64
	logger      *slog.Logger
}

// NewMaterialService wires dependencies for the material service.
func NewMaterialService(materials MaterialRepository, files MaterialFileStore, idGenerator func() string, now func() time.Time, maxBytes int64) *MaterialService {
	return NewMaterialServiceWithLogger(materials, files, idGenerator, now, maxBytes, nil)
}

// NewMaterialServiceWithLogger wires dependencies with a specified logger.
func NewMaterialServiceWithLogger(materials MaterialRepository, files MaterialFileStore, idGenerator func() string, now func() time.Time, maxBytes int64, logger *slog.Logger) *MaterialService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MaterialService{
		materials:   materials,
		files:       files,
		idGenerator: idGenerator,
		now:         now,
		maxBytes:    maxBytes,
		logger:      defaultLogger(logger),
	}
}

// MaxBytes returns the upload ceiling.
func (s *MaterialService) MaxBytes() int64 {
	return s.maxBytes
}

func (s *MaterialService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaterialService", operation, attrs...)
}

// Upload validates and stores a material. Nothing is written unless every check
// passes, and the stored file is removed again if the record cannot be saved.
func (s *MaterialService) Upload(ctx context.Context, params UploadMaterialParams) (material Material, err error) {
	if s == nil || s.materials == nil || s.files == nil {
		err = fmt.Errorf("material dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "Upload", "principal_id", params.Principal.UserID, "mime_type", params.MimeType, "size", params.Size)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "material upload failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("material_id", material.ID, "stored_file", material.StoredFileName).InfoContext(ctx, "material uploaded")
	}()

	if err = Authorize(params.Principal, AccessAdmin); err != nil {
		return
	}

	title := strings.TrimSpace(params.Title)
	if vErr := validateInput(materialShape{Title: title}, "Invalid title."); vErr != nil {
		err = vErr
		return
	}

	if params.Content == nil {
		vErr := (&ValidationError{}).withMessage("File is required.")
		vErr.add("file", "file is a required field")
		err = vErr
		return
	}

	materialType, ok := materialTypeFor(params.MimeType)
	if !ok {
		vErr := (&ValidationError{}).withMessage("Only PDF or text files allowed.")
		vErr.add("file", "file must be application/pdf or text/plain")
		err = vErr
		return
	}

	if params.Size > s.maxBytes {
		err = s.tooLarge()
		return
	}

	var storedName string
	storedName, _, err = s.files.Save(ctx, params.Content, strings.TrimPrefix(materialType.Extension(), "."))
	if err != nil {
		if errors.Is(err, ErrContentTooLarge) {
			err = s.tooLarge()
		}
		return
	}

	candidate := Material{
		ID:             s.idGenerator(),
		Title:          escapeText(title),
		Description:    escapeText(params.Description),
		StoredFileName: storedName,
		UploaderID:     params.Principal.UserID,
		Type:           materialType,
		CreatedAt:      s.now(),
	}
	if err = s.materials.CreateMaterial(ctx, candidate); err != nil {
		if rmErr := s.files.Remove(storedName); rmErr != nil {
			logger.WarnContext(ctx, "failed to remove orphaned file", "stored_file", storedName, "error", rmErr)
		}
		return
	}

	material = candidate
	return
}

func (s *MaterialService) tooLarge() error {
	vErr := (&ValidationError{}).withMessage("File too large.")
	vErr.add("file", fmt.Sprintf("file must be at most %d bytes", s.maxBytes))
	return vErr
}

func materialTypeFor(mimeType string) (MaterialType, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", false
	}
	t, ok := materialTypesByMIME[strings.ToLower(mediaType)]
	return t, ok
}

// List returns every material newest first for authenticated callers.
func (s *MaterialService) List(ctx context.Context, principal Principal) ([]Material, error) {
	if s == nil || s.materials == nil {
		return nil, fmt.Errorf("material repository not configured")
	}
	if err := Authorize(principal, AccessAuthenticated); err != nil {
		return nil, err
	}

	materials, err := s.materials.ListMaterials(ctx)
	if err != nil {
		s.loggerWith(ctx, "List", "principal_id", principal.UserID).ErrorContext(ctx, "failed to list materials", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	if materials == nil {
		materials = []Material{}
	}
	return materials, nil
}

// Open resolves a material and opens its stored file for download. A missing
// record yields ErrNotFound; a record whose file is gone yields ErrFileMissing.
// The caller closes the returned file.
func (s *MaterialService) Open(ctx context.Context, principal Principal, materialID string) (download MaterialDownload, err error) {
	if s == nil || s.materials == nil || s.files == nil {
		err = fmt.Errorf("material dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "Open", "principal_id", principal.UserID, "material_id", materialID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "material download failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "material download started")
	}()

	if err = Authorize(principal, AccessAuthenticated); err != nil {
		return
	}

	var material Material
	material, err = s.materials.GetMaterial(ctx, strings.TrimSpace(materialID))
	if err != nil {
		return
	}

	var file MaterialFile
	file, err = s.files.Open(material.StoredFileName)
	if err != nil {
		return
	}

	download = MaterialDownload{
		Material: material,
		File:     file,
		FileName: DownloadFileName(material),
	}
	return
}

// DownloadFileName derives the client facing file name from the unescaped
// title and the type's canonical extension.
func DownloadFileName(material Material) string {
	return unescapeText(material.Title) + material.Type.Extension()
}
