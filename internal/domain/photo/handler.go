package photo

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phototrail/phototrail-api/internal/middleware"
	"github.com/phototrail/phototrail-api/internal/pkg/imaging"
	"github.com/phototrail/phototrail-api/internal/pkg/response"
	"github.com/phototrail/phototrail-api/internal/pkg/storage"
	"github.com/phototrail/phototrail-api/internal/pkg/validator"
)

// Handler handles photo HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates photo handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles POST /photos
// @Summary Upload a photo with metadata
// @Tags Photo
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Param photoDate formData string true "Photo date (YYYY-MM-DD)"
// @Success 201 {object} response.Response{data=PhotoResponse}
// @Failure 400,413,422,502 {object} response.Response
// @Router /photos [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "Missing image file")
		return
	}
	defer file.Close()

	req := UploadRequest{
		PhotoDate:   r.FormValue("photoDate"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	data, err := imaging.ReadLimited(file, MaxFileSize)
	if err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum upload size")
		return
	}

	meta := UploadMeta{
		OriginalName: header.Filename,
		FileType:     header.Header.Get("Content-Type"),
		PhotoDate:    req.PhotoDate,
		Description:  req.Description,
		Location:     req.Location,
	}
	if profile := middleware.GetProfile(r.Context()); profile != nil {
		meta.UploadedBy = profile.Name
	}

	photo, err := h.service.UploadPhoto(r.Context(), data, meta)
	if err != nil {
		h.uploadError(w, err)
		return
	}

	response.Created(w, PhotoResponseFromEntity(photo))
}

func (h *Handler) uploadError(w http.ResponseWriter, err error) {
	var uploadErr *storage.UploadError
	switch {
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrUnsupportedImage):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrFileTooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.As(err, &uploadErr):
		response.Error(w, http.StatusBadGateway, "UPLOAD_FAILED", uploadErr.Cause)
	case errors.Is(err, storage.ErrUploadFailed):
		response.Error(w, http.StatusBadGateway, "UPLOAD_FAILED", "Upload failed on every available storage provider")
	default:
		response.InternalError(w)
	}
}

// List handles GET /photos
// @Summary Photo timeline, newest first
// @Tags Photo
// @Produce json
// @Success 200 {object} response.Response{data=[]PhotoResponse}
// @Failure 500 {object} response.Response
// @Router /photos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.GetAllPhotos(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	items := make([]*PhotoResponse, len(photos))
	for i, p := range photos {
		items[i] = PhotoResponseFromEntity(p)
	}

	response.OK(w, items)
}

// GetByID handles GET /photos/{id}
// @Summary Get one photo record
// @Tags Photo
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Response{data=PhotoResponse}
// @Failure 404,500 {object} response.Response
// @Router /photos/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	photo, err := h.service.GetPhotoByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrPhotoNotFound):
			response.NotFound(w, "Photo not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, PhotoResponseFromEntity(photo))
}

// Delete handles DELETE /photos/{id}
// @Summary Delete a photo and its stored objects
// @Tags Photo
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 204 {string} string "No Content"
// @Failure 404,500 {object} response.Response
// @Router /photos/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePhoto(r.Context(), chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, ErrPhotoNotFound):
			response.NotFound(w, "Photo not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// StorageStatus handles GET /storage/status
// @Summary Active storage provider and backend health
// @Tags Storage
// @Produce json
// @Success 200 {object} response.Response{data=StorageStatusResponse}
// @Router /storage/status [get]
func (h *Handler) StorageStatus(w http.ResponseWriter, r *http.Request) {
	active, probes := h.service.StorageStatus(r.Context())

	backends := make(map[string]bool, len(probes))
	for p, ok := range probes {
		backends[string(p)] = ok
	}

	response.OK(w, &StorageStatusResponse{
		ActiveProvider: string(active),
		Backends:       backends,
	})
}

// SetProvider handles PUT /storage/provider
// @Summary Switch the active storage provider
// @Tags Storage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetProviderRequest true "Provider to activate"
// @Success 200 {object} response.Response
// @Failure 400,422 {object} response.Response
// @Router /storage/provider [put]
func (h *Handler) SetProvider(w http.ResponseWriter, r *http.Request) {
	var req SetProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	if err := h.service.SetStorageProvider(storage.Provider(req.Provider)); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.OK(w, map[string]string{"activeProvider": req.Provider})
}
