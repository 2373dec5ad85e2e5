package blob_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"mycocore/internal/blob"
)

func TestMemoryStorePutGetHead(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	meta := map[string]string{"kind": "inventory_status"}
	info, err := store.Put(ctx, "reports/abc/report.json", strings.NewReader(`{"ok":true}`), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    meta,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 11 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info: %+v", info)
	}

	// Mutating the caller's metadata map must not leak into the store.
	meta["kind"] = "mutated"
	head, err := store.Head(ctx, "reports/abc/report.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Metadata["kind"] != "inventory_status" {
		t.Fatalf("metadata aliased: %+v", head.Metadata)
	}

	got, rc, err := store.Get(ctx, "reports/abc/report.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Key != "reports/abc/report.json" {
		t.Fatalf("unexpected key %q", got.Key)
	}
}

func TestMemoryStorePutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), blob.PutOptions{}); err == nil {
		t.Fatal("expected error overwriting existing key")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "k")
	if err != nil || !existed {
		t.Fatalf("delete existing: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "k")
	if err != nil || existed {
		t.Fatalf("delete missing: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "k"); err == nil {
		t.Fatal("expected head to fail after delete")
	}
}

func TestMemoryStoreListPrefixSorted(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	for _, key := range []string{"reports/b.csv", "reports/a.json", "audit/log"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), blob.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "reports/a.json" || infos[1].Key != "reports/b.csv" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestMemoryStorePresignUnsupported(t *testing.T) {
	store := blob.NewMemory()
	if _, err := store.PresignURL(context.Background(), "k", blob.SignedURLOptions{}); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFilesystemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	info, err := store.Put(ctx, "reports/r1/inventory.csv", strings.NewReader("lot_id,quantity\nlot-1,10\n"), blob.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"kind": "inventory_status"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" || info.Size == 0 {
		t.Fatalf("expected etag and size: %+v", info)
	}

	head, err := store.Head(ctx, "reports/r1/inventory.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != info.ETag || head.ContentType != "text/csv" || head.Metadata["kind"] != "inventory_status" {
		t.Fatalf("sidecar metadata lost: %+v", head)
	}

	_, rc, err := store.Get(ctx, "reports/r1/inventory.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(body), "lot_id,quantity") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestFilesystemStoreRejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	for _, key := range []string{"../escape", "/abs/path", "a/../../b", "  "} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), blob.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFilesystemStorePutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), blob.PutOptions{}); err == nil {
		t.Fatal("expected error overwriting existing key")
	}
}

func TestFilesystemStoreDeleteAndList(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	for _, key := range []string{"reports/a/x.json", "reports/b/y.csv", "other/z"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), blob.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "reports/a/x.json" || infos[1].Key != "reports/b/y.csv" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "reports/a/x.json")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "reports/a/x.json")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
	infos, err = store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "reports/b/y.csv" {
		t.Fatalf("unexpected listing after delete: %+v", infos)
	}
}

func TestFilesystemStorePresignGetOnly(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	if _, err := store.PresignURL(ctx, "k", blob.SignedURLOptions{Method: "PUT"}); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}
	url, err := store.PresignURL(ctx, "k", blob.SignedURLOptions{Method: "GET"})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("unexpected url %q", url)
	}
}
