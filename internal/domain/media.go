package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaPurpose says where an uploaded file is used.
type MediaPurpose string

const (
	MediaHeaderImage MediaPurpose = "header_image"
	MediaBlock       MediaPurpose = "block_media"
	MediaLibrary     MediaPurpose = "library_media"
)

func (p MediaPurpose) Valid() bool {
	switch p {
	case MediaHeaderImage, MediaBlock, MediaLibrary:
		return true
	}
	return false
}

// MediaAsset stores metadata about a file uploaded to object storage. The
// program tree only keeps the public URL string.
type MediaAsset struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Purpose     MediaPurpose       `bson:"purpose" json:"purpose"`
	ObjectKey   string             `bson:"objectKey" json:"-"` // Key in the bucket, internal use
	URL         string             `bson:"url" json:"url"`
	ContentType string             `bson:"contentType" json:"contentType"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
