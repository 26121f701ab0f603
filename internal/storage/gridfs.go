package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFS stores every bucket as a GridFS bucket of the same name. The
// object path is the GridFS filename.
type GridFS struct {
	db *mongo.Database
}

// DialGridFS connects to MongoDB and checks the server answers.
func DialGridFS(ctx context.Context, uri, database string) (*GridFS, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Printf("Connected to MongoDB database=%s", database)
	return NewGridFS(client.Database(database)), client.Disconnect, nil
}

func NewGridFS(db *mongo.Database) *GridFS {
	return &GridFS{db: db}
}

func (g *GridFS) Bucket(name string) Bucket {
	return &gridBucket{db: g.db, name: name}
}

type gridBucket struct {
	db   *mongo.Database
	name string
}

type gridMeta struct {
	ContentType string `bson:"contentType"`
}

func (b *gridBucket) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(b.db, options.GridFSBucket().SetName(b.name))
}

// revisions returns the ids of every stored revision of p.
func (b *gridBucket) revisions(ctx context.Context, bk *gridfs.Bucket, p string) ([]any, error) {
	cur, err := bk.FindContext(ctx, bson.M{"filename": p})
	if err != nil {
		return nil, err
	}
	var files []gridfs.File
	if err := cur.All(ctx, &files); err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

func (b *gridBucket) Put(ctx context.Context, p string, r io.Reader, contentType string, upsert bool) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	bk, err := b.bucket()
	if err != nil {
		return err
	}

	old, err := b.revisions(ctx, bk, clean)
	if err != nil {
		return fmt.Errorf("gridfs find %s: %w", clean, err)
	}
	if len(old) > 0 && !upsert {
		return ErrObjectExists
	}

	opts := options.GridFSUpload().SetMetadata(gridMeta{ContentType: contentType})
	if _, err := bk.UploadFromStream(clean, r, opts); err != nil {
		return fmt.Errorf("gridfs upload %s: %w", clean, err)
	}

	// the new revision is in place; drop the ones it replaces
	for _, id := range old {
		if err := bk.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			log.Printf("gridfs_revision_delete_failed bucket=%s path=%s error=%v", b.name, clean, err)
		}
	}
	return nil
}

func (b *gridBucket) Open(_ context.Context, p string) (io.ReadCloser, *Object, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, nil, err
	}
	bk, err := b.bucket()
	if err != nil {
		return nil, nil, err
	}

	stream, err := bk.OpenDownloadStreamByName(clean)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	f := stream.GetFile()
	obj := &Object{Path: clean, Size: f.Length, ModTime: f.UploadDate.UTC()}
	var meta gridMeta
	if len(f.Metadata) > 0 && bson.Unmarshal(f.Metadata, &meta) == nil {
		obj.ContentType = meta.ContentType
	}
	return stream, obj, nil
}

func (b *gridBucket) Remove(ctx context.Context, p string) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	bk, err := b.bucket()
	if err != nil {
		return err
	}

	ids, err := b.revisions(ctx, bk, clean)
	if err != nil {
		return fmt.Errorf("gridfs find %s: %w", clean, err)
	}
	if len(ids) == 0 {
		return ErrObjectNotFound
	}
	for _, id := range ids {
		if err := bk.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("gridfs delete %s: %w", clean, err)
		}
	}
	return nil
}

func (b *gridBucket) Exists(ctx context.Context, p string) (bool, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	bk, err := b.bucket()
	if err != nil {
		return false, err
	}
	ids, err := b.revisions(ctx, bk, clean)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}
