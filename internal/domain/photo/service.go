package photo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phototrail/phototrail-api/internal/pkg/imaging"
	"github.com/phototrail/phototrail-api/internal/pkg/storage"
)

// maxUploadAttempts bounds the provider-fallback loop: the initial attempt
// plus exactly one retry on the managed backend, never more.
const maxUploadAttempts = 2

// MaxFileSize is the upload size limit in bytes (10MB).
const MaxFileSize int64 = 10 * 1024 * 1024

// UploadMeta is the caller-supplied metadata accompanying an upload.
type UploadMeta struct {
	OriginalName string
	FileType     string
	PhotoDate    string
	Description  string
	Location     string
	UploadedBy   string
}

// Service orchestrates photo uploads: provider selection, thumbnail
// generation, the two object uploads, and the metadata write, with one
// bounded fallback to the managed backend when a REST provider fails.
type Service struct {
	repo   Repository
	router *storage.Router
	thumbs *imaging.Thumbnailer
	cache  *Cache
}

// NewService creates the photo service. cache may be nil.
func NewService(repo Repository, router *storage.Router, thumbs *imaging.Thumbnailer, cache *Cache) *Service {
	return &Service{
		repo:   repo,
		router: router,
		thumbs: thumbs,
		cache:  cache,
	}
}

// UploadPhoto runs the full upload flow and returns the persisted record.
//
// The first attempt runs against whichever provider probes best. If that
// attempt fails with a provider-classified error and the provider was not
// the managed backend, the whole flow restarts once against the managed
// backend with freshly generated file names; partial uploads from the
// failed attempt are left behind (logged, not cleaned up).
func (s *Service) UploadPhoto(ctx context.Context, image []byte, meta UploadMeta) (*Photo, error) {
	if len(image) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(image)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if !imaging.ValidateType(meta.OriginalName) {
		return nil, ErrUnsupportedImage
	}

	var lastErr error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		var provider storage.Provider
		if attempt == 1 {
			provider = s.router.SelectBestProvider(ctx)
		} else {
			if err := s.router.SetProvider(storage.ProviderFirebase); err != nil {
				break
			}
			provider = storage.ProviderFirebase
			log.Warn().
				Str("provider", string(provider)).
				Err(lastErr).
				Msg("Retrying photo upload on managed backend")
		}

		photo, err := s.uploadOnce(ctx, provider, image, meta)
		if err == nil {
			s.cache.Invalidate(ctx)
			log.Info().
				Str("photo_id", photo.ID).
				Str("provider", string(provider)).
				Msg("Photo uploaded")
			return photo, nil
		}
		lastErr = err

		// Only provider-classified failures are worth another provider.
		// Thumbnail decode or metadata persistence problems would fail the
		// same way anywhere.
		var uploadErr *storage.UploadError
		if !errors.As(err, &uploadErr) {
			return nil, err
		}
		// The managed backend already failed on the first try; there is no
		// further fallback behind it.
		if attempt == 1 && provider == storage.ProviderFirebase {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %v", storage.ErrUploadFailed, lastErr)
}

// uploadOnce is one complete attempt against a pinned provider: fresh file
// names, thumbnail, image upload, thumbnail upload, metadata write.
func (s *Service) uploadOnce(ctx context.Context, provider storage.Provider, image []byte, meta UploadMeta) (*Photo, error) {
	ts := time.Now().UnixMilli()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(meta.OriginalName)), ".")
	if ext == "" {
		ext = "jpg"
	}
	fileName := fmt.Sprintf("photo_%d.%s", ts, ext)
	thumbnailName := fmt.Sprintf("thumbnail_%d.%s", ts, ext)

	thumb, err := s.thumbs.Generate(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	imageURL, err := s.router.Upload(ctx, image, fileName, storage.DefaultFolder, meta.FileType)
	if err != nil {
		return nil, err
	}

	thumbnailURL, err := s.router.Upload(ctx, thumb.Data, thumbnailName, storage.DefaultFolder, thumb.ContentType)
	if err != nil {
		// The full image already landed; it stays behind as an orphan.
		log.Warn().
			Str("locator", imageURL).
			Str("provider", string(provider)).
			Msg("Thumbnail upload failed, full image left orphaned")
		return nil, err
	}

	photo := &Photo{
		ImageURL:        imageURL,
		ThumbnailURL:    thumbnailURL,
		FileName:        fileName,
		ThumbnailName:   thumbnailName,
		FileSize:        int64(len(image)),
		FileType:        meta.FileType,
		StorageProvider: string(provider),
		PhotoDate:       meta.PhotoDate,
		Description:     meta.Description,
		Location:        meta.Location,
		UploadedBy:      meta.UploadedBy,
		UploadedAt:      time.Now().UTC(),
	}

	if _, err := s.repo.Create(ctx, photo); err != nil {
		// Both objects landed but the record did not; they stay behind.
		log.Warn().
			Str("image", imageURL).
			Str("thumbnail", thumbnailURL).
			Msg("Metadata write failed, uploaded objects left orphaned")
		return nil, fmt.Errorf("failed to save photo record: %w", err)
	}
	return photo, nil
}

// GetAllPhotos returns the timeline, newest photo date first.
func (s *Service) GetAllPhotos(ctx context.Context) ([]*Photo, error) {
	if photos, ok := s.cache.GetTimeline(ctx); ok {
		return photos, nil
	}

	photos, err := s.repo.ListByDate(ctx)
	if err != nil {
		return nil, err
	}

	// Store order is ascending; the timeline shows newest first.
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].PhotoDate != photos[j].PhotoDate {
			return photos[i].PhotoDate > photos[j].PhotoDate
		}
		return photos[i].UploadedAt.After(photos[j].UploadedAt)
	})

	s.cache.SetTimeline(ctx, photos)
	return photos, nil
}

// GetPhotoByID returns one record.
func (s *Service) GetPhotoByID(ctx context.Context, id string) (*Photo, error) {
	return s.repo.GetByID(ctx, id)
}

// DeletePhoto removes the metadata record first, then best-effort deletes
// both stored objects. Object deletion goes to whichever backend the
// locator belongs to, not the active provider; a failure there is logged
// and does not re-create the record or abort the other deletion.
func (s *Service) DeletePhoto(ctx context.Context, id string) error {
	photo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, locator := range []string{photo.ImageURL, photo.ThumbnailURL} {
		if locator == "" {
			continue
		}
		if err := s.router.Delete(ctx, locator); err != nil {
			log.Warn().
				Err(err).
				Str("photo_id", id).
				Str("locator", locator).
				Msg("Object deletion failed, object left orphaned")
		}
	}

	s.cache.Invalidate(ctx)
	log.Info().Str("photo_id", id).Msg("Photo deleted")
	return nil
}

// SetStorageProvider pins the active provider manually. The next upload's
// probe pass may still move it.
func (s *Service) SetStorageProvider(p storage.Provider) error {
	return s.router.SetProvider(p)
}

// StorageStatus reports the active provider and per-backend probe results.
func (s *Service) StorageStatus(ctx context.Context) (storage.Provider, map[storage.Provider]bool) {
	return s.router.Active(), s.router.ProbeAll(ctx)
}
