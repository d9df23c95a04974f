package photo

import (
	"context"
	"errors"

	"github.com/phototrail/phototrail-api/internal/pkg/docstore"
)

// Collection is the document-store collection photo records live in.
const Collection = "photos"

// orderField is the field the document store orders timeline listings by.
const orderField = "photoDate"

// Repository defines photo metadata access.
type Repository interface {
	// Create persists the record and returns the store-assigned id.
	Create(ctx context.Context, photo *Photo) (string, error)
	GetByID(ctx context.Context, id string) (*Photo, error)
	// ListByDate returns all photos ascending by photo date.
	ListByDate(ctx context.Context) ([]*Photo, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	store docstore.Store
}

// NewRepository creates a photo repository over a document store.
func NewRepository(store docstore.Store) Repository {
	return &repository{store: store}
}

func (r *repository) Create(ctx context.Context, photo *Photo) (string, error) {
	doc, err := photo.toDocument()
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, Collection, doc)
	if err != nil {
		return "", err
	}
	photo.ID = id
	return id, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Photo, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return photoFromDocument(doc)
}

func (r *repository) ListByDate(ctx context.Context) ([]*Photo, error) {
	docs, err := r.store.List(ctx, Collection, orderField)
	if err != nil {
		return nil, err
	}
	photos := make([]*Photo, 0, len(docs))
	for _, doc := range docs {
		p, err := photoFromDocument(doc)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	err := r.store.Remove(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrPhotoNotFound
	}
	return err
}
