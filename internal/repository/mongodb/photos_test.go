package mongodb

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhotoStoreMalformedIDMapsToNotFound(t *testing.T) {
	store := &PhotoStore{}
	ctx := context.Background()

	_, err := store.WriteTo(ctx, "not-a-hex-id", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "not-a-hex-id"), ErrNotFound)
}
