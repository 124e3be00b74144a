package app

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResourceTypeFor(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		wantType    string
		wantOK      bool
	}{
		{"sales.csv", "", "csv", true},
		{"Sales.CSV", "application/octet-stream", "csv", true},
		{"report.xlsx", "application/octet-stream", "xlsx", true},
		{"legacy.xls", "", "xls", true},
		{"export", "text/csv", "csv", true},
		{"export", "text/csv; charset=utf-8", "csv", true},
		{"sheet", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", true},
		{"malware.exe", "application/octet-stream", "", false},
		{"notes.txt", "text/plain", "", false},
		{"archive.zip", "application/zip", "", false},
		{"blob", "application/octet-stream", "", false},
	}
	for _, tc := range cases {
		gotType, gotOK := resourceTypeFor(tc.name, tc.contentType)
		if gotType != tc.wantType || gotOK != tc.wantOK {
			t.Errorf("resourceTypeFor(%q, %q) = %q, %v, want %q, %v", tc.name, tc.contentType, gotType, gotOK, tc.wantType, tc.wantOK)
		}
	}
}

func TestUploadRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	files := []UploadFile{
		{Name: "good.csv", ContentType: "text/csv", Content: []byte("a,b\n1,2\n")},
		{Name: "malware.exe", ContentType: "application/octet-stream", Content: []byte{0x4d, 0x5a}},
	}
	_, err := env.app.UploadDatasets(context.Background(), env.admin, env.project.ID, files)
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("UploadDatasets() = %v, want ErrUnsupportedFileType", err)
	}
	if env.objects.count() != 0 {
		t.Fatalf("object store holds %d objects after rejected batch, want 0", env.objects.count())
	}
	datasets, err := env.app.ListProjectDatasets(context.Background(), env.admin, env.project.ID)
	if err != nil {
		t.Fatalf("ListProjectDatasets() error: %v", err)
	}
	if len(datasets) != 0 {
		t.Fatalf("registry holds %d datasets after rejected batch, want 0", len(datasets))
	}
}

func TestUploadEmptyBatch(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.app.UploadDatasets(context.Background(), env.admin, env.project.ID, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("UploadDatasets() with no files = %v, want ErrValidation", err)
	}
}

func TestUploadStoresBatchInOrder(t *testing.T) {
	env := newTestEnv(t)
	files := []UploadFile{
		{Name: "q1 sales.csv", ContentType: "text/csv", Content: []byte("a,b\n1,2\n")},
		{Name: "q2.xlsx", ContentType: "application/octet-stream", Content: []byte("xlsx-bytes")},
	}
	uploaded, err := env.app.UploadDatasets(context.Background(), env.admin, env.project.ID, files)
	if err != nil {
		t.Fatalf("UploadDatasets() error: %v", err)
	}
	if len(uploaded) != 2 {
		t.Fatalf("uploaded %d datasets, want 2", len(uploaded))
	}

	datasets, err := env.app.ListProjectDatasets(context.Background(), env.admin, env.project.ID)
	if err != nil {
		t.Fatalf("ListProjectDatasets() error: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("listed %d datasets, want 2", len(datasets))
	}
	if datasets[0].Name != "q1 sales.csv" || datasets[1].Name != "q2.xlsx" {
		t.Fatalf("dataset order = %q, %q", datasets[0].Name, datasets[1].Name)
	}
	if datasets[0].ResourceType != "csv" || datasets[1].ResourceType != "xlsx" {
		t.Fatalf("resource types = %q, %q", datasets[0].ResourceType, datasets[1].ResourceType)
	}
	for _, ds := range datasets {
		if ds.UploaderID != env.admin.ID {
			t.Fatalf("uploader = %q, want %q", ds.UploaderID, env.admin.ID)
		}
		if ds.StorageURL == "" {
			t.Fatalf("dataset %s missing download URL", ds.Name)
		}
		if strings.Contains(ds.StorageURL, " ") {
			t.Fatalf("unsanitized storage URL %q", ds.StorageURL)
		}
	}
	if env.objects.count() != 2 {
		t.Fatalf("object store holds %d objects, want 2", env.objects.count())
	}
}

func TestUploadAbortsOnStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.objects.putErr = errors.New("bucket unavailable")
	files := []UploadFile{{Name: "sales.csv", ContentType: "text/csv", Content: []byte("a\n")}}
	if _, err := env.app.UploadDatasets(context.Background(), env.admin, env.project.ID, files); !errors.Is(err, ErrUpstream) {
		t.Fatalf("UploadDatasets() with failing storage = %v, want ErrUpstream", err)
	}
	datasets, _ := env.app.ListProjectDatasets(context.Background(), env.admin, env.project.ID)
	if len(datasets) != 0 {
		t.Fatalf("registry holds %d datasets after storage failure, want 0", len(datasets))
	}
}

func TestUploadRequiresTeamMembership(t *testing.T) {
	env := newTestEnv(t)
	outsider, _, err := env.app.SignUpUser("outsider@example.com", "Out", "password1")
	if err != nil {
		t.Fatalf("SignUpUser() error: %v", err)
	}
	files := []UploadFile{{Name: "sales.csv", ContentType: "text/csv", Content: []byte("a\n")}}
	_, err = env.app.UploadDatasets(context.Background(), Principal{Kind: "user", ID: outsider.ID}, env.project.ID, files)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("UploadDatasets() by outsider = %v, want ErrForbidden", err)
	}
}
