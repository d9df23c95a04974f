package photo

import "time"

// UploadRequest carries the metadata form fields of POST /photos. The image
// itself arrives as the "image" multipart file part.
type UploadRequest struct {
	PhotoDate   string `json:"photoDate" validate:"required,photo_date"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=255"`
}

// SetProviderRequest for PUT /storage/provider
type SetProviderRequest struct {
	Provider string `json:"provider" validate:"required,provider"`
}

// PhotoResponse represents a photo in API responses
type PhotoResponse struct {
	ID              string `json:"id"`
	ImageURL        string `json:"imageUrl"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	FileName        string `json:"fileName"`
	FileSize        int64  `json:"fileSize"`
	FileType        string `json:"fileType"`
	StorageProvider string `json:"storageProvider"`
	PhotoDate       string `json:"photoDate"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location,omitempty"`
	UploadedBy      string `json:"uploadedBy,omitempty"`
	UploadedAt      string `json:"uploadedAt"`
}

// PhotoResponseFromEntity converts entity to response DTO
func PhotoResponseFromEntity(p *Photo) *PhotoResponse {
	return &PhotoResponse{
		ID:              p.ID,
		ImageURL:        p.ImageURL,
		ThumbnailURL:    p.ThumbnailURL,
		FileName:        p.FileName,
		FileSize:        p.FileSize,
		FileType:        p.FileType,
		StorageProvider: p.StorageProvider,
		PhotoDate:       p.PhotoDate,
		Description:     p.Description,
		Location:        p.Location,
		UploadedBy:      p.UploadedBy,
		UploadedAt:      p.UploadedAt.Format(time.RFC3339),
	}
}

// StorageStatusResponse reports the active provider and backend health
type StorageStatusResponse struct {
	ActiveProvider string          `json:"activeProvider"`
	Backends       map[string]bool `json:"backends"`
}
