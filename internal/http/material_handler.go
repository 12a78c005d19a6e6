package http

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/study-portal/internal/application"
)

const (
	// multipartMemory bounds the part of an upload kept in memory; the rest spills to temp files.
	multipartMemory = 1 << 20
	// multipartOverhead allows for form fields and part headers on top of the file itself.
	multipartOverhead = 64 << 10
)

type materialService interface {
	Upload(ctx context.Context, params application.UploadMaterialParams) (application.Material, error)
	List(ctx context.Context, principal application.Principal) ([]application.Material, error)
	Open(ctx context.Context, principal application.Principal, materialID string) (application.MaterialDownload, error)
	MaxBytes() int64
}

type MaterialHandler struct {
	service   materialService
	responder responder
	logger    *slog.Logger
}

func NewMaterialHandler(service materialService, logger *slog.Logger) *MaterialHandler {
	base := defaultLogger(logger)
	return &MaterialHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MaterialHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "MaterialHandler", operation, attrs...)
}

// Upload handles POST /materials/upload with multipart fields title,
// description and file.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log(r.Context(), "Upload").InfoContext(r.Context(), "upload body exceeded limit", "limit", tooLarge.Limit)
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "File too large."})
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				h.log(r.Context(), "Upload").WarnContext(r.Context(), "failed to remove multipart temp files", "error", err)
			}
		}()
	}

	params := application.UploadMaterialParams{
		Principal:   principalFrom(r),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			params.Content = file
			params.Size = header.Size
			params.MimeType = header.Header.Get("Content-Type")
		case errors.Is(err, http.ErrMissingFile):
		default:
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	material, err := h.service.Upload(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, uploadResponse{
		Message:  "Material uploaded.",
		Material: toMaterialDTO(material),
	})
}

// List handles GET /materials.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	materials, err := h.service.List(r.Context(), principalFrom(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := make([]materialDTO, 0, len(materials))
	for _, m := range materials {
		response = append(response, toMaterialDTO(m))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// Download handles GET /materials/download/{id} and streams the stored file as
// an attachment named after the material's title.
func (h *MaterialHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	download, err := h.service.Open(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	defer download.File.Content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": download.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", contentTypeFor(download.Material.Type))
	http.ServeContent(w, r, download.FileName, download.File.ModTime, download.File.Content)
}

func contentTypeFor(t application.MaterialType) string {
	if t == application.MaterialTypePDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

type materialDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Uploader    string `json:"uploader"`
	CreatedAt   string `json:"createdAt"`
}

type uploadResponse struct {
	Message  string      `json:"message"`
	Material materialDTO `json:"material"`
}

func toMaterialDTO(material application.Material) materialDTO {
	return materialDTO{
		ID:          material.ID,
		Title:       material.Title,
		Description: material.Description,
		Type:        string(material.Type),
		Uploader:    material.UploaderID,
		CreatedAt:   formatTimestamp(material.CreatedAt),
	}
}
