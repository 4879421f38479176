package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pepeboard/internal/models"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	errObjectNotFound = errors.New("object not found")
	errObjectExists   = errors.New("object already exists")
)

// blob is the minimal object API the store needs. The GCS implementation is
// gcsBlob; tests substitute an in-memory one.
type blob interface {
	Read(ctx context.Context) ([]byte, error)
	// Create writes data only if the object does not exist yet.
	Create(ctx context.Context, data []byte) error
	Write(ctx context.Context, data []byte) error
	Location() string
}

// ObjectStore keeps the document as one object in a bucket.
type ObjectStore struct {
	obj    blob
	closer io.Closer
}

// NewObjectStore connects to Google Cloud Storage. An empty credentialsFile
// uses application default credentials.
func NewObjectStore(ctx context.Context, bucket, object, credentialsFile string) (*ObjectStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &ObjectStore{
		obj:    &gcsBlob{handle: client.Bucket(bucket).Object(object), bucket: bucket, object: object},
		closer: client,
	}, nil
}

func newObjectStoreWithBlob(b blob) *ObjectStore {
	return &ObjectStore{obj: b}
}

func (s *ObjectStore) Name() string { return "gcs" }

func (s *ObjectStore) Load(ctx context.Context) (models.Collection, error) {
	data, err := s.obj.Read(ctx)
	if errors.Is(err, errObjectNotFound) {
		cerr := s.obj.Create(ctx, emptyDocument)
		switch {
		case cerr == nil:
			return models.Collection{}, nil
		case errors.Is(cerr, errObjectExists):
			// Another writer created it first; read what it stored.
			data, err = s.obj.Read(ctx)
		default:
			return nil, models.NewStorageError(fmt.Errorf("init %s: %w", s.obj.Location(), cerr))
		}
	}
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("read %s: %w", s.obj.Location(), err))
	}

	posts, err := decode(data)
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("%s: %w", s.obj.Location(), err))
	}
	return posts, nil
}

func (s *ObjectStore) Save(ctx context.Context, posts models.Collection) error {
	data, err := encode(posts)
	if err != nil {
		return models.NewStorageError(err)
	}
	if err := s.obj.Write(ctx, data); err != nil {
		return models.NewStorageError(fmt.Errorf("write %s: %w", s.obj.Location(), err))
	}
	return nil
}

func (s *ObjectStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type gcsBlob struct {
	handle *storage.ObjectHandle
	bucket string
	object string
}

func (b *gcsBlob) Location() string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, b.object)
}

func (b *gcsBlob) Read(ctx context.Context) ([]byte, error) {
	r, err := b.handle.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *gcsBlob) Create(ctx context.Context, data []byte) error {
	err := b.write(ctx, b.handle.If(storage.Conditions{DoesNotExist: true}), data)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return errObjectExists
	}
	return err
}

func (b *gcsBlob) Write(ctx context.Context, data []byte) error {
	return b.write(ctx, b.handle, data)
}

func (b *gcsBlob) write(ctx context.Context, h *storage.ObjectHandle, data []byte) error {
	w := h.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
