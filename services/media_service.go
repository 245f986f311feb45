package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

const presignExpiry = 15 * time.Minute

// allowedMedia maps accepted content types to their canonical extension and any aliases.
var allowedMedia = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

type MediaService interface {
	Presign(ctx context.Context, ownerID uuid.UUID, req *models.PresignRequest) (*models.PresignResponse, error)
	Register(ctx context.Context, ownerID uuid.UUID, req *models.RegisterMediaRequest) (*models.Media, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type mediaService struct {
	media  repository.MediaRepository
	store  aws_pkg.ObjectStore
	now    func() time.Time
	logger *zap.Logger
}

func NewMediaService(media repository.MediaRepository, store aws_pkg.ObjectStore, logger *zap.Logger) MediaService {
	return &mediaService{media: media, store: store, now: time.Now, logger: logger}
}

// mediaExtension picks the extension for an upload. The file name's own extension
// wins when it is a valid alias for the content type.
func mediaExtension(fileName, contentType string) (string, bool) {
	exts, ok := allowedMedia[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", false
	}
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(fileName, "\\", "/")))
	for _, e := range exts {
		if e == ext {
			return ext, true
		}
	}
	return exts[0], true
}

func (s *mediaService) Presign(ctx context.Context, ownerID uuid.UUID, req *models.PresignRequest) (*models.PresignResponse, error) {
	ext, ok := mediaExtension(req.FileName, req.ContentType)
	if !ok {
		return nil, validationField("content_type", "Only JPEG, PNG, WebP and GIF images are allowed")
	}

	now := s.now().UTC()
	key := fmt.Sprintf("media/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
	url, err := s.store.PresignPut(ctx, key, strings.ToLower(req.ContentType), presignExpiry)
	if err != nil {
		return nil, internal(s.logger, "Failed to presign upload", err, zap.String("key", key))
	}

	s.logger.Debug("Presigned media upload",
		zap.String("key", key),
		zap.String("file_name", Slugify(req.FileName)),
		zap.String("owner_id", ownerID.String()),
	)
	return &models.PresignResponse{
		UploadURL: url,
		Key:       key,
		PublicURL: s.store.PublicURL(key),
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}

func (s *mediaService) Register(ctx context.Context, ownerID uuid.UUID, req *models.RegisterMediaRequest) (*models.Media, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if _, ok := allowedMedia[contentType]; !ok {
		return nil, validationField("content_type", "Only JPEG, PNG, WebP and GIF images are allowed")
	}
	if !strings.HasPrefix(req.Key, "media/") || strings.Contains(req.Key, "..") {
		return nil, validationField("key", "Key must be a presigned media key")
	}

	media := &models.Media{
		Key:         req.Key,
		URL:         s.store.PublicURL(req.Key),
		ContentType: contentType,
		Size:        req.Size,
		OwnerID:     ownerID,
	}
	if err := s.media.Create(ctx, media); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Media is already registered")
		}
		return nil, internal(s.logger, "Failed to register media", err)
	}
	return media, nil
}

func (s *mediaService) Get(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	media, err := s.media.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Media")
		}
		return nil, internal(s.logger, "Failed to load media", err)
	}
	return media, nil
}

// Delete removes the S3 object, then the row.
func (s *mediaService) Delete(ctx context.Context, id uuid.UUID) error {
	media, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, media.Key); err != nil {
		return internal(s.logger, "Failed to delete media object", err, zap.String("key", media.Key))
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return internal(s.logger, "Failed to delete media record", err)
	}
	return nil
}
