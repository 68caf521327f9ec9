package retriever

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"picstash/internal/filestore"
	"picstash/internal/hashpath"
)

// All three identifiers share the first six hex characters and therefore
// the same hash bucket.
const (
	searchGUID  = "bd6e9581-67e0-467f-986e-aa0baa77e43e"
	compareGUID = "bd6e95aa-1d11-472a-826e-e953bb2a2a21"
	emptyGUID   = "bd6e95ff-67e0-467f-986e-aa0baa77e43e"
	bucket      = "bd/6e/95"
)

func seededStore(t *testing.T) *filestore.MemStore {
	t.Helper()
	store := filestore.NewMemStore()
	if err := store.MkdirAll(bucket); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		bucket + "/" + searchGUID + ".jpg":    "search photo",
		bucket + "/" + compareGUID + "-0.jpg": "compare photo 0",
		bucket + "/" + compareGUID + "-1.jpg": "compare photo 1",
	}
	for p, content := range files {
		if err := store.Write(p, strings.NewReader(content)); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func testService(t *testing.T, store filestore.FileStore) *Service {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, store, time.Minute, zerolog.Nop())
}

func TestGetFile(t *testing.T) {
	svc := testService(t, seededStore(t))

	f, err := svc.GetFile(searchGUID, hashpath.NoSequence)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "search photo" {
		t.Errorf("read %q, want %q", got, "search photo")
	}
}

func TestGetFileWithSequence(t *testing.T) {
	svc := testService(t, seededStore(t))

	f, err := svc.GetFile(compareGUID, 1)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	got, _ := io.ReadAll(f)
	if string(got) != "compare photo 1" {
		t.Errorf("read %q, want %q", got, "compare photo 1")
	}
}

func TestGetFileNotFound(t *testing.T) {
	svc := testService(t, seededStore(t))

	if _, err := svc.GetFile(emptyGUID, hashpath.NoSequence); !errors.Is(err, filestore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetFile(compareGUID, 7); !errors.Is(err, filestore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetFileInvalidIdentifier(t *testing.T) {
	svc := testService(t, filestore.NewMemStore())

	if _, err := svc.GetFile("invalid", hashpath.NoSequence); !errors.Is(err, hashpath.ErrInvalidIdentifier) {
		t.Errorf("error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestCountFiles(t *testing.T) {
	svc := testService(t, seededStore(t))

	tests := []struct {
		name     string
		guid     string
		expected int
	}{
		{"Search photo only", searchGUID, 1},
		{"Compare set", compareGUID, 2},
		{"Nothing stored", emptyGUID, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := svc.CountFiles(tt.guid)
			if err != nil {
				t.Fatalf("CountFiles failed: %v", err)
			}
			if n != tt.expected {
				t.Errorf("CountFiles(%s) = %d, want %d", tt.guid, n, tt.expected)
			}
		})
	}
}

func TestCountFilesIgnoresLookalikes(t *testing.T) {
	store := seededStore(t)
	// Same prefix, but none of these belong to searchGUID's count.
	junk := []string{
		bucket + "/" + searchGUID + ".png",
		bucket + "/" + searchGUID + "-x.jpg",
		bucket + "/" + searchGUID + "1.jpg",
		bucket + "/prefix-" + searchGUID + ".jpg",
	}
	for _, p := range junk {
		if err := store.Write(p, strings.NewReader("junk")); err != nil {
			t.Fatal(err)
		}
	}

	svc := testService(t, store)
	n, err := svc.CountFiles(searchGUID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountFiles = %d, want 1 (lookalike names must not match)", n)
	}
}

func TestCountFilesMissingBucket(t *testing.T) {
	svc := testService(t, filestore.NewMemStore())

	n, err := svc.CountFiles(searchGUID)
	if err != nil {
		t.Fatalf("CountFiles failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountFiles = %d, want 0 for a bucket that was never created", n)
	}
}

func TestCountFilesCached(t *testing.T) {
	store := seededStore(t)
	svc := testService(t, store)

	n, err := svc.CountFiles(compareGUID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("CountFiles = %d, want 2", n)
	}

	// A new artifact inside the TTL window is not observed yet.
	if err := store.Write(bucket+"/"+compareGUID+"-2.jpg", strings.NewReader("late")); err != nil {
		t.Fatal(err)
	}
	n, err = svc.CountFiles(compareGUID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountFiles = %d, want cached 2 within the TTL", n)
	}
}

func TestCountFilesInvalidIdentifier(t *testing.T) {
	svc := testService(t, filestore.NewMemStore())

	if _, err := svc.CountFiles("nope"); !errors.Is(err, hashpath.ErrInvalidIdentifier) {
		t.Errorf("error = %v, want ErrInvalidIdentifier", err)
	}
}
