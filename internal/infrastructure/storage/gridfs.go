package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const defaultBucket = "invoices"

// GridFSStore keeps objects in a GridFS bucket keyed by filename. Writing a
// path that already exists replaces it.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database, bucketName string) (*GridFSStore, error) {
	if bucketName == "" {
		bucketName = defaultBucket
	}
	b, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: b}, nil
}

func (s *GridFSStore) Put(ctx context.Context, path, contentType string, r io.Reader) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	newID, err := s.bucket.UploadFromStream(path, r, opts)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return s.pruneRevisions(ctx, path, newID)
}

// pruneRevisions removes older files stored under path.
func (s *GridFSStore) pruneRevisions(ctx context.Context, path string, keep primitive.ObjectID) error {
	cur, err := s.bucket.FindContext(ctx, bson.M{"filename": path, "_id": bson.M{"$ne": keep}})
	if err != nil {
		return fmt.Errorf("find revisions of %s: %w", path, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var f struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("delete revision of %s: %w", path, err)
		}
	}
	return cur.Err()
}

func (s *GridFSStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stream, err := s.bucket.OpenDownloadStreamByName(path)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return stream, nil
}
