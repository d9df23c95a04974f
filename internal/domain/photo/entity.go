package photo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/phototrail/phototrail-api/internal/pkg/docstore"
)

// Photo is the persisted metadata record for one uploaded photo. It is
// created only after both the full image and the thumbnail are durably in
// object storage; the id is assigned by the document store and never
// changes.
type Photo struct {
	ID              string    `json:"id"`
	ImageURL        string    `json:"imageUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	FileName        string    `json:"fileName"`
	ThumbnailName   string    `json:"thumbnailName"`
	FileSize        int64     `json:"fileSize"`
	FileType        string    `json:"fileType"`
	StorageProvider string    `json:"storageProvider"`
	PhotoDate       string    `json:"photoDate"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	UploadedBy      string    `json:"uploadedBy,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// toDocument renders the photo as a schemaless document.
func (p *Photo) toDocument() (docstore.Document, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo record: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode photo record: %w", err)
	}
	return doc, nil
}

// photoFromDocument parses a stored document back into a Photo.
func photoFromDocument(doc docstore.Document) (*Photo, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo record: %w", err)
	}
	var p Photo
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode photo record: %w", err)
	}
	return &p, nil
}
