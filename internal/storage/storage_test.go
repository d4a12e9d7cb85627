package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"motiongen/internal/domain"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "video.mp4", want: "video.mp4"},
		{key: "/nested/./video.mp4", want: "nested/video.mp4"},
		{key: `dir\video.mp4`, want: "dir/video.mp4"},
		{key: "../escape.mp4", wantErr: true},
		{key: "a/../../escape.mp4", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.key)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tc.key, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v, want %q", tc.key, got, err, tc.want)
		}
	}
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(ctx, "clips/out.mp4", []byte("video"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := store.Read(ctx, key)
	if err != nil || string(data) != "video" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Read(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Read after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestFileStoreSweep(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(ctx, "old.mp4", []byte("old")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := store.Write(ctx, "new.mp4", []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.mp4"), past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	removed, err := store.Sweep(ctx, time.Now().Add(-time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("Sweep = %d, %v, want 1", removed, err)
	}
	if _, err := store.Read(ctx, "new.mp4"); err != nil {
		t.Fatalf("fresh file swept: %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	if _, err := store.Write(ctx, "a.mp4", []byte("a")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := store.Write(ctx, "b.mp4", []byte("b")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	removed, err := store.Sweep(ctx, now.Add(-30*time.Minute))
	if err != nil || removed != 1 {
		t.Fatalf("Sweep = %d, %v, want 1", removed, err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestBlobsPutGetRelease(t *testing.T) {
	ctx := context.Background()
	blobs := NewBlobs(NewMemoryStore(), time.Minute, nil)

	id, err := blobs.Put(ctx, &domain.Reference{Data: []byte("webm bytes"), MIMEType: "video/webm"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if filepath.Ext(id) != ".webm" {
		t.Fatalf("id = %q, want .webm extension", id)
	}

	ref, err := blobs.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(ref.Data) != "webm bytes" || ref.MIMEType != "video/webm" {
		t.Fatalf("ref = %+v", ref)
	}

	if err := blobs.Release(ctx, id); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := blobs.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after release = %v, want ErrNotFound", err)
	}
}

func TestBlobsRejectForeignIDs(t *testing.T) {
	blobs := NewBlobs(NewMemoryStore(), time.Minute, nil)
	for _, id := range []string{"", "../etc/passwd", "not-a-uuid.mp4", "0b0f1f5e-7c1a-4d7e-9d59-3b0a7c6e1f00.exe"} {
		if _, err := blobs.Get(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Get(%q) = %v, want ErrNotFound", id, err)
		}
	}
}

func TestBlobsSweepHonorsTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	blobs := NewBlobs(store, time.Minute, nil)
	if _, err := blobs.Put(ctx, &domain.Reference{Data: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if removed, _ := blobs.Sweep(ctx, time.Now()); removed != 0 {
		t.Fatalf("fresh blob swept")
	}
	if removed, _ := blobs.Sweep(ctx, time.Now().Add(2*time.Minute)); removed != 1 {
		t.Fatalf("expired blob kept")
	}

	unbounded := NewBlobs(NewMemoryStore(), 0, nil)
	if removed, _ := unbounded.Sweep(ctx, time.Now().Add(time.Hour)); removed != 0 {
		t.Fatalf("zero TTL must not sweep")
	}
}
