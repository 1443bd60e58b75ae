package mongodb

import (
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PhotoStore persists uploaded images in GridFS so disease reports and
// catalog entries can reference them by id instead of embedding bytes.
type PhotoStore struct {
	bucket *gridfs.Bucket
}

// NewPhotoStore opens the photo bucket, namespaced by AppID like the
// document collections.
func NewPhotoStore(client *mongo.Client, dbName, appID string) (*PhotoStore, error) {
	bucket, err := gridfs.NewBucket(
		client.Database(dbName),
		options.GridFSBucket().SetName(appID+"_photos"),
	)
	if err != nil {
		return nil, fmt.Errorf("open photo bucket: %w", err)
	}
	return &PhotoStore{bucket: bucket}, nil
}

// Save streams an upload into the bucket and returns the file id. The
// bucket API carries no context, so a context deadline is mapped onto the
// bucket's write deadline.
func (p *PhotoStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.bucket.SetWriteDeadline(deadline); err != nil {
			return "", fmt.Errorf("store photo %s: %w", filename, err)
		}
	}
	id, err := p.bucket.UploadFromStream(filename, r)
	if err != nil {
		return "", fmt.Errorf("store photo %s: %w", filename, err)
	}
	return id.Hex(), nil
}

// WriteTo streams a stored photo into w.
func (p *PhotoStore) WriteTo(ctx context.Context, id string, w io.Writer) (int64, error) {
	fileID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("%w: photo %s", ErrNotFound, id)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.bucket.SetReadDeadline(deadline); err != nil {
			return 0, fmt.Errorf("load photo %s: %w", id, err)
		}
	}
	n, err := p.bucket.DownloadToStream(fileID, w)
	if err != nil {
		if err == gridfs.ErrFileNotFound {
			return 0, fmt.Errorf("%w: photo %s", ErrNotFound, id)
		}
		return 0, fmt.Errorf("load photo %s: %w", id, err)
	}
	return n, nil
}

// Delete removes a stored photo.
func (p *PhotoStore) Delete(ctx context.Context, id string) error {
	fileID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: photo %s", ErrNotFound, id)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.bucket.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("delete photo %s: %w", id, err)
		}
	}
	if err := p.bucket.Delete(fileID); err != nil {
		if err == gridfs.ErrFileNotFound {
			return fmt.Errorf("%w: photo %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete photo %s: %w", id, err)
	}
	return nil
}
