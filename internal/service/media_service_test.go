package service

import (
	"context"
	"strings"
	"testing"

	"alcyxob/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequestUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	ticket, err := env.media.RequestUpload(ctx, coach.ID, domain.MediaHeaderImage, " Image/PNG ")
	require.NoError(t, err)

	prefix := "media/header_image/" + coach.ID.Hex() + "/"
	assert.True(t, strings.HasPrefix(ticket.ObjectKey, prefix), ticket.ObjectKey)
	assert.True(t, strings.HasSuffix(ticket.ObjectKey, ".png"), ticket.ObjectKey)
	assert.Equal(t, "https://cdn.example.com/"+ticket.ObjectKey, ticket.PublicURL)
	assert.Contains(t, ticket.UploadURL, ticket.ObjectKey)
	assert.False(t, ticket.ExpiresAt.IsZero())

	id, err := primitive.ObjectIDFromHex(ticket.MediaID)
	require.NoError(t, err)
	asset, err := env.media.GetMedia(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, ticket.PublicURL, asset.URL)
	assert.Equal(t, coach.ID, asset.OwnerID)
}

func TestRequestUploadRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.coach(t)

	_, err := env.media.RequestUpload(ctx, coach.ID, domain.MediaBlock, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = env.media.RequestUpload(ctx, coach.ID, "avatar", "image/png")
	assert.ErrorIs(t, err, ErrInvalidMediaPurpose)

	_, err = env.media.GetMedia(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrMediaNotFound)
}
