// Package gcs stores each table as a Cloud Storage object under an optional prefix.
// Object uploads are atomic: readers see the previous generation until Close succeeds.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"alugueis/internal/store"
)

const csvContentType = "text/csv; charset=utf-8"

// Scopes are the OAuth scopes the store needs.
var Scopes = []string{storage.ScopeReadWrite}

type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

var _ store.TableStore = (*Store)(nil)

func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("missing GCS_BUCKET")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: client.Bucket(bucket), prefix: strings.Trim(prefix, "/")}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ObjectName maps a table key to its object name.
func (s *Store) ObjectName(key string) (string, error) {
	return objectName(s.prefix, key)
}

func objectName(prefix, key string) (string, error) {
	k, err := store.CleanKey(key)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return k, nil
	}
	return path.Join(prefix, k), nil
}

func (s *Store) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	name, err := s.ObjectName(tableID)
	if err != nil {
		return nil, err
	}
	r, err := s.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (s *Store) WriteTable(ctx context.Context, tableID string, data []byte) error {
	name, err := s.ObjectName(tableID)
	if err != nil {
		return err
	}
	return s.put(ctx, s.bucket.Object(name), data)
}

func (s *Store) put(ctx context.Context, obj *storage.ObjectHandle, data []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = contentType(obj.ObjectName())
	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("write %s: %w", obj.ObjectName(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %s: %w", obj.ObjectName(), err)
	}
	return nil
}

// EnsureExists creates an empty object unless one already exists. containerID is unused;
// the bucket and prefix are fixed per store.
func (s *Store) EnsureExists(ctx context.Context, tableID, name, _ string) (string, error) {
	key := tableID
	if key == "" {
		key = name
	}
	objName, err := s.ObjectName(key)
	if err != nil {
		return "", err
	}

	obj := s.bucket.Object(objName)
	_, err = obj.Attrs(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("stat %s: %w", objName, err)
	}

	err = s.put(ctx, obj.If(storage.Conditions{DoesNotExist: true}), nil)
	if err != nil && !isPreconditionFailed(err) {
		return "", err
	}
	return key, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "application/pdf"
	default:
		return csvContentType
	}
}
