// Package drive stores each table as a CSV file in Google Drive. The table identifier
// is the Drive file ID. Uploading new media replaces the file content in one revision.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"alugueis/internal/store"
)

const csvMimeType = "text/csv"

// Scopes are the OAuth scopes the store needs.
var Scopes = []string{gdrive.DriveScope}

type Store struct {
	svc *gdrive.Service
}

var _ store.TableStore = (*Store)(nil)

func New(ctx context.Context, opts ...option.ClientOption) (*Store, error) {
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Store{svc: svc}, nil
}

func (s *Store) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	if tableID == "" {
		return nil, store.ErrInvalidTableID
	}
	resp, err := s.svc.Files.Get(tableID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
		}
		return nil, fmt.Errorf("download %s: %w", tableID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", tableID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (s *Store) WriteTable(ctx context.Context, tableID string, data []byte) error {
	if tableID == "" {
		return store.ErrInvalidTableID
	}
	_, err := s.svc.Files.Update(tableID, &gdrive.File{}).
		Media(bytes.NewReader(data), googleapi.ContentType(csvMimeType)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
		}
		return fmt.Errorf("upload %s: %w", tableID, err)
	}
	return nil
}

// EnsureExists resolves tableID, then a live file called name in folderID, and only then
// creates an empty CSV file there.
func (s *Store) EnsureExists(ctx context.Context, tableID, name, folderID string) (string, error) {
	if tableID != "" {
		f, err := s.svc.Files.Get(tableID).Fields("id", "trashed").SupportsAllDrives(true).Context(ctx).Do()
		switch {
		case err == nil && !f.Trashed:
			return f.Id, nil
		case err != nil && !isNotFound(err):
			return "", fmt.Errorf("get %s: %w", tableID, err)
		}
	}
	if name == "" {
		return "", store.ErrInvalidTableID
	}

	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(folderID))
	}
	list, err := s.svc.Files.List().Q(q).
		Fields("files(id)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	meta := &gdrive.File{Name: name, MimeType: csvMimeType}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	created, err := s.svc.Files.Create(meta).
		Media(bytes.NewReader(nil), googleapi.ContentType(csvMimeType)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	return created.Id, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
