package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/studio/errs"
)

func openTest(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	return s, &now
}

func TestRecordAndListNewestFirst(t *testing.T) {
	s, now := openTest(t)
	ctx := context.Background()

	if err := s.Record(ctx, "updateBlog", errs.CleanupFailure{Op: "remove image", Target: "/images/blog/a.jpg", Err: "permission denied"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	*now = now.Add(time.Minute)
	if err := s.Record(ctx, "deleteBlog",
		errs.CleanupFailure{Op: "remove image", Target: "/images/blog/b.jpg", Err: "busy"},
		errs.CleanupFailure{Op: "mirror delete", Target: "images/blog/b.jpg", Err: "timeout"},
	); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := s.List(ctx, 10, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Source != "deleteBlog" || entries[2].Source != "updateBlog" {
		t.Fatalf("not newest first: %+v", entries)
	}
	if entries[2].Target != "/images/blog/a.jpg" || entries[2].Err != "permission denied" {
		t.Fatalf("fields lost: %+v", entries[2])
	}

	if n, err := s.Count(ctx); err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestRecordNothingIsNoop(t *testing.T) {
	s, _ := openTest(t)
	if err := s.Record(context.Background(), "x"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Fatalf("Count = %d", n)
	}
}

func TestResolveAndPrune(t *testing.T) {
	s, now := openTest(t)
	ctx := context.Background()
	if err := s.Record(ctx, "uploadImage", errs.CleanupFailure{Op: "mirror put", Target: "k", Err: "e"}); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.List(ctx, 0, false)
	id := entries[0].ID

	if err := s.Resolve(ctx, id); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := s.Resolve(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second resolve: %v", err)
	}
	if err := s.Resolve(ctx, 9999); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}

	if open, _ := s.List(ctx, 0, false); len(open) != 0 {
		t.Fatalf("resolved entry still listed: %+v", open)
	}
	all, _ := s.List(ctx, 0, true)
	if len(all) != 1 || all[0].ResolvedAt == nil {
		t.Fatalf("List(all) = %+v", all)
	}

	if n, err := s.Prune(ctx, now.Add(-time.Hour)); err != nil || n != 0 {
		t.Fatalf("prune before cutoff = %d, %v", n, err)
	}
	if n, err := s.Prune(ctx, now.Add(time.Hour)); err != nil || n != 1 {
		t.Fatalf("prune after cutoff = %d, %v", n, err)
	}
}

func TestReopenKeepsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, err := s.GetSetting("schema_version")
	if err != nil || v != "1" {
		t.Fatalf("schema_version = %q, %v", v, err)
	}
}
