package service

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"
	"alcyxob/coaching-app/internal/storage"
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media content type")
	ErrInvalidMediaPurpose  = errors.New("invalid media purpose")
	ErrUploadURLError       = errors.New("failed to generate upload URL")
	ErrMediaNotFound        = errors.New("media not found")
)

// mediaExtensions lists the accepted content types and the file extension
// used for their object keys.
var mediaExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"image/gif":       "gif",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/webm":      "webm",
}

// UploadTicket is returned to the client before it uploads a file directly
// to object storage.
type UploadTicket struct {
	MediaID   string    `json:"mediaId"`
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MediaService interface {
	// RequestUpload records the asset and returns a presigned PUT URL. The
	// public URL is what goes into a program's header image or a block payload.
	RequestUpload(ctx context.Context, ownerID primitive.ObjectID, purpose domain.MediaPurpose, contentType string) (*UploadTicket, error)
	GetMedia(ctx context.Context, mediaID primitive.ObjectID) (*domain.MediaAsset, error)
}

type mediaService struct {
	mediaRepo   repository.MediaRepository
	fileStorage storage.FileStorage
}

func NewMediaService(mediaRepo repository.MediaRepository, fileStorage storage.FileStorage) MediaService {
	return &mediaService{mediaRepo: mediaRepo, fileStorage: fileStorage}
}

func (s *mediaService) RequestUpload(ctx context.Context, ownerID primitive.ObjectID, purpose domain.MediaPurpose, contentType string) (*UploadTicket, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidMediaPurpose
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := mediaExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedMediaType
	}

	objectKey := path.Join("media", string(purpose), ownerID.Hex(), uuid.NewString()+"."+ext)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		slog.Error("failed to presign upload", "object_key", objectKey, "error", err)
		return nil, ErrUploadURLError
	}

	now := time.Now().UTC()
	asset := &domain.MediaAsset{
		OwnerID:     ownerID,
		Purpose:     purpose,
		ObjectKey:   objectKey,
		URL:         s.fileStorage.PublicURL(objectKey),
		ContentType: contentType,
		CreatedAt:   now,
	}
	if _, err := s.mediaRepo.Create(ctx, asset); err != nil {
		return nil, err
	}

	return &UploadTicket{
		MediaID:   asset.ID.Hex(),
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		PublicURL: asset.URL,
		ExpiresAt: now.Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

func (s *mediaService) GetMedia(ctx context.Context, mediaID primitive.ObjectID) (*domain.MediaAsset, error) {
	asset, err := s.mediaRepo.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return asset, nil
}
