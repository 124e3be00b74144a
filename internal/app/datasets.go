package app

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"datadesk/internal/util"
	"datadesk/pkg/domain"
)

const uploadConcurrency = 4

// UploadFile is one file in an upload batch, fully buffered in memory.
type UploadFile struct {
	Name        string
	ContentType string
	Content     []byte
}

var allowedExtensions = map[string]string{
	".csv":  "csv",
	".xls":  "xls",
	".xlsx": "xlsx",
}

var allowedContentTypes = map[string]string{
	"text/csv":                 "csv",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

// resourceTypeFor classifies an upload as csv, xls, or xlsx. A file is
// accepted when either its extension or its declared content type is on the
// allow-list; a generic content type alone never qualifies.
func resourceTypeFor(name, contentType string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if rt, ok := allowedExtensions[ext]; ok {
		return rt, true
	}
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if rt, ok := allowedContentTypes[mediaType]; ok {
		return rt, true
	}
	return "", false
}

// validateUploadBatch rejects the whole batch on the first disallowed file.
func validateUploadBatch(files []UploadFile) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files provided", ErrValidation)
	}
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: file name required", ErrValidation)
		}
		if _, ok := resourceTypeFor(f.Name, f.ContentType); !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedFileType, f.Name)
		}
	}
	return nil
}

// UploadDatasets validates and stores a batch of tabular files for a project.
// Validation covers the whole batch before any byte is stored; a single
// disallowed file aborts the upload with no partial acceptance. Object
// uploads run concurrently, registry records are appended in input order.
func (a *App) UploadDatasets(ctx context.Context, p Principal, projectID string, files []UploadFile) ([]domain.Dataset, error) {
	project, err := a.GetProject(p, projectID)
	if err != nil {
		return nil, err
	}
	if err := validateUploadBatch(files); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	datasets := make([]domain.Dataset, len(files))
	for i, f := range files {
		rt, _ := resourceTypeFor(f.Name, f.ContentType)
		id := util.NewID()
		datasets[i] = domain.Dataset{
			ID:           id,
			ProjectID:    project.ID,
			Name:         filepath.Base(f.Name),
			StorageKey:   buildDatasetKey(project.ID, id, f.Name),
			ResourceType: rt,
			UploaderID:   p.ID,
			UploadedAt:   now,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			f := files[i]
			ds := datasets[i]
			contentType := f.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			if err := a.objects.Put(gctx, ds.StorageKey, bytes.NewReader(f.Content), int64(len(f.Content)), contentType); err != nil {
				return fmt.Errorf("store %s: %w", ds.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, ds := range datasets {
			_ = a.objects.Delete(context.Background(), ds.StorageKey)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	for i, ds := range datasets {
		if err := a.store.AppendDataset(ds); err != nil {
			return nil, fmt.Errorf("append dataset %s: %w", ds.Name, err)
		}
		datasets[i] = ds
	}
	a.presignDatasets(ctx, datasets)
	return datasets, nil
}

// ListProjectDatasets returns a project's datasets in upload order with
// fresh download URLs.
func (a *App) ListProjectDatasets(ctx context.Context, p Principal, projectID string) ([]domain.Dataset, error) {
	if _, err := a.GetProject(p, projectID); err != nil {
		return nil, err
	}
	datasets, err := a.store.ListDatasets(projectID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	a.presignDatasets(ctx, datasets)
	return datasets, nil
}

// presignDatasets fills download URLs. A presign failure leaves the URL
// empty rather than failing the listing.
func (a *App) presignDatasets(ctx context.Context, datasets []domain.Dataset) {
	for i := range datasets {
		url, err := a.objects.PresignGet(ctx, datasets[i].StorageKey, a.presignExpiry)
		if err != nil {
			continue
		}
		datasets[i].StorageURL = url
	}
}

func buildDatasetKey(projectID, datasetID, filename string) string {
	name := sanitizeFilename(filepath.Base(filename))
	if name == "" {
		name = "dataset"
	}
	return path.Join(datasetStoragePrefix, projectID, datasetID, name)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
				b.WriteRune(r)
				lastUnderscore = false
				continue
			}
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
