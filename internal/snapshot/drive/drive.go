// Package drive implements the snapshot ports against a Google Drive
// folder. Service account credentials come from the environment, the
// same way the rest of the Google integration is configured.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"ledgerdash/internal/cache"
	"ledgerdash/internal/log"
	"ledgerdash/internal/snapshot"
)

const (
	readCacheSize = 4
	readCacheTTL  = 15 * time.Minute
)

// Store lists, downloads, and uploads snapshots in one Drive folder.
// Downloads are cached per file id so back-to-back scheduled runs
// don't refetch an unchanged snapshot.
type Store struct {
	svc       *gdrive.Service
	folderID  string
	readCache *cache.LRU[[]byte]
	logger    *log.Logger
}

// NewFromEnv creates a Drive store using environment variables.
// Required: GDRIVE_FOLDER_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Store, error) {
	folderID := strings.TrimSpace(os.Getenv("GDRIVE_FOLDER_ID"))
	if folderID == "" {
		return nil, errors.New("missing GDRIVE_FOLDER_ID")
	}

	credentialsJSON, err := readCredentials()
	if err != nil {
		return nil, err
	}

	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return New(svc, folderID, logger), nil
}

// New wraps an existing Drive service, for tests.
func New(svc *gdrive.Service, folderID string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		svc:       svc,
		folderID:  folderID,
		readCache: cache.NewLRU[[]byte](readCacheSize, readCacheTTL),
		logger:    logger.WithComponent(log.ComponentSnapshot),
	}
}

func readCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// List implements snapshot.Store.
func (s *Store) List(ctx context.Context) ([]snapshot.Ref, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false and name contains '%s'", s.folderID, snapshot.Suffix)
	var refs []snapshot.Ref
	pageToken := ""

	for {
		call := s.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive snapshots: %w", err)
		}
		for _, f := range page.Files {
			date, ok := snapshot.ParseName(f.Name)
			if !ok {
				continue
			}
			refs = append(refs, snapshot.Ref{ID: f.Id, Name: f.Name, Date: date})
		}
		if page.NextPageToken == "" {
			return refs, nil
		}
		pageToken = page.NextPageToken
	}
}

// Read implements snapshot.Store.
func (s *Store) Read(ctx context.Context, ref snapshot.Ref) ([]byte, error) {
	if data, ok := s.readCache.Get(ref.ID); ok {
		s.logger.DebugContext(ctx, "Snapshot served from read cache", log.FieldSnapshot, ref.Name)
		return data, nil
	}

	resp, err := s.svc.Files.Get(ref.ID).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", ref.Name, snapshot.ErrNotFound)
		}
		return nil, fmt.Errorf("download snapshot %s: %w", ref.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body %s: %w", ref.Name, err)
	}

	s.readCache.Set(ref.ID, data)
	return data, nil
}

// Write implements snapshot.Writer. A same-named file is updated in
// place; otherwise a new file is created in the folder.
func (s *Store) Write(ctx context.Context, name string, data []byte) (snapshot.Ref, error) {
	date, ok := snapshot.ParseName(name)
	if !ok {
		return snapshot.Ref{}, fmt.Errorf("invalid snapshot name %q", name)
	}
	ref, err := s.Upload(ctx, name, "application/json", data)
	if err != nil {
		return snapshot.Ref{}, err
	}
	ref.Date = date
	s.readCache.Set(ref.ID, data)
	return ref, nil
}

// Upload puts an arbitrary file into the folder, updating a same-named
// file in place. Used for dashboards as well as snapshots.
func (s *Store) Upload(ctx context.Context, name, mimeType string, data []byte) (snapshot.Ref, error) {
	existing, err := s.findByName(ctx, name)
	if err != nil {
		return snapshot.Ref{}, err
	}

	var file *gdrive.File
	if existing != "" {
		file, err = s.svc.Files.Update(existing, &gdrive.File{}).
			Media(strings.NewReader(string(data))).
			Fields("id").
			Context(ctx).
			Do()
	} else {
		file, err = s.svc.Files.Create(&gdrive.File{
			Name:     name,
			Parents:  []string{s.folderID},
			MimeType: mimeType,
		}).
			Media(strings.NewReader(string(data))).
			Fields("id").
			Context(ctx).
			Do()
	}
	if err != nil {
		return snapshot.Ref{}, fmt.Errorf("upload %s: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Uploaded file to Drive", log.FieldSnapshot, name)
	return snapshot.Ref{ID: file.Id, Name: name}, nil
}

// ViewLink returns the browser link for an uploaded file, for the
// email body.
func (s *Store) ViewLink(ctx context.Context, ref snapshot.Ref) (string, error) {
	file, err := s.svc.Files.Get(ref.ID).Fields("webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get view link for %s: %w", ref.Name, err)
	}
	return file.WebViewLink, nil
}

func (s *Store) findByName(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false and name = '%s'", s.folderID, name)
	page, err := s.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find snapshot %s: %w", name, err)
	}
	if len(page.Files) == 0 {
		return "", nil
	}
	return page.Files[0].Id, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}
