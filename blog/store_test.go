package blog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eringen/studio/errs"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }
func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	root := t.TempDir()
	clock := &testClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	n := 0
	s, err := NewStore(Config{
		MetaDir:     filepath.Join(root, "data", "blogs"),
		ImageDir:    filepath.Join(root, "images", "blog"),
		ImagePrefix: "/images/blog",
		Now:         clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, clock
}

func validFields(title string) Fields {
	return Fields{
		Title:    title,
		Summary:  "A short summary",
		Content:  "<p>Some body text here.</p>",
		Author:   "Studio",
		Category: "Design",
		Tags:     []string{"print", "Print", " web "},
		Status:   StatusPublished,
	}
}

var testImage = Image{Data: []byte("full"), Thumb: []byte("thumb"), Ext: ".jpg"}

func TestCreateWritesMetadataAndImages(t *testing.T) {
	s, clock := newTestStore(t)

	out, err := s.Create(validFields("Hello World"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p := out.Post
	if p.Slug != "hello-world" || p.MetadataFile != "hello-world.json" {
		t.Fatalf("unexpected slug/file: %q %q", p.Slug, p.MetadataFile)
	}
	if p.ID != "id-1" {
		t.Fatalf("id = %q", p.ID)
	}
	if !p.CreatedAt.Equal(clock.t) || !p.UpdatedAt.Equal(clock.t) {
		t.Fatalf("timestamps not set from clock")
	}
	if len(p.Tags) != 2 || p.Tags[0] != "print" || p.Tags[1] != "web" {
		t.Fatalf("tags not normalized: %v", p.Tags)
	}
	wantImage := fmt.Sprintf("/images/blog/%d-hello-world.jpg", clock.t.UnixMilli())
	if p.FeaturedImage != wantImage {
		t.Fatalf("featuredImage = %q, want %q", p.FeaturedImage, wantImage)
	}
	if p.WordCount != 4 || p.ReadingMinutes != 1 {
		t.Fatalf("stats = %d/%d", p.WordCount, p.ReadingMinutes)
	}

	if _, err := os.Stat(filepath.Join(s.metaDir, "hello-world.json")); err != nil {
		t.Fatalf("metadata file missing: %v", err)
	}
	for _, u := range []string{p.FeaturedImage, p.FeaturedThumb} {
		if _, err := os.Stat(filepath.Join(s.imageDir, filepath.Base(u))); err != nil {
			t.Fatalf("image %s missing: %v", u, err)
		}
	}

	got, err := s.Get("hello-world")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Hello World" || got.ID != p.ID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateDefaultsToDraft(t *testing.T) {
	s, _ := newTestStore(t)
	f := validFields("Quiet Post")
	f.Status = ""
	out, err := s.Create(f, testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.Post.Status != StatusDraft {
		t.Fatalf("status = %q, want draft", out.Post.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(Fields{Title: "Only a title"}, Image{})
	if !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var ve errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := map[string]bool{}
	for _, item := range ve.Items {
		fields[item.Field] = true
	}
	for _, f := range []string{"summary", "content", "category", "image"} {
		if !fields[f] {
			t.Errorf("missing error for %s: %v", f, ve)
		}
	}

	entries, _ := os.ReadDir(s.metaDir)
	if len(entries) != 0 {
		t.Fatalf("rejected create left %d files", len(entries))
	}
}

func TestCreateSlugCollision(t *testing.T) {
	s, clock := newTestStore(t)
	if _, err := s.Create(validFields("Hello World"), testImage); err != nil {
		t.Fatalf("first create: %v", err)
	}
	clock.Advance(time.Second)
	out, err := s.Create(validFields("Hello, World!"), testImage)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if out.Post.Slug != "hello-world-2" {
		t.Fatalf("slug = %q, want hello-world-2", out.Post.Slug)
	}
	clock.Advance(time.Second)
	out, err = s.Create(validFields("hello world"), testImage)
	if err != nil {
		t.Fatalf("third create: %v", err)
	}
	if out.Post.Slug != "hello-world-3" {
		t.Fatalf("slug = %q, want hello-world-3", out.Post.Slug)
	}
}

func TestListSortsAndSkipsBrokenFiles(t *testing.T) {
	s, clock := newTestStore(t)
	for _, title := range []string{"First", "Second", "Third"} {
		if _, err := s.Create(validFields(title), testImage); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
		clock.Advance(time.Minute)
	}
	if err := os.WriteFile(filepath.Join(s.metaDir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.metaDir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	posts, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := slugs(posts)
	want := []string{"third", "second", "first"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateKeepsCreatedAtAndRenames(t *testing.T) {
	s, clock := newTestStore(t)
	created, err := s.Create(validFields("Old Title"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clock.Advance(time.Hour)

	title := "New Title"
	out, err := s.Update(created.Post.ID, created.Post.MetadataFile, Patch{Title: &title}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	p := out.Post
	if p.Slug != "new-title" || p.MetadataFile != "new-title.json" {
		t.Fatalf("slug/file = %q/%q", p.Slug, p.MetadataFile)
	}
	if !p.CreatedAt.Equal(created.Post.CreatedAt) {
		t.Fatalf("createdAt changed")
	}
	if !p.UpdatedAt.Equal(clock.t) {
		t.Fatalf("updatedAt not refreshed")
	}
	if p.FeaturedImage != created.Post.FeaturedImage {
		t.Fatalf("image changed without a new upload")
	}
	if p.Summary != created.Post.Summary {
		t.Fatalf("unpatched field changed")
	}
	if _, err := os.Stat(filepath.Join(s.metaDir, "old-title.json")); !os.IsNotExist(err) {
		t.Fatalf("old metadata file still present: %v", err)
	}
	if len(out.Cleanup) != 0 {
		t.Fatalf("unexpected cleanup failures: %v", out.Cleanup)
	}
}

func TestUpdateSameSlugOverwritesInPlace(t *testing.T) {
	s, _ := newTestStore(t)
	created, err := s.Create(validFields("Stable"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	summary := "changed"
	out, err := s.Update(created.Post.ID, "stable.json", Patch{Summary: &summary}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.Post.Slug != "stable" {
		t.Fatalf("slug = %q, want stable", out.Post.Slug)
	}
	got, _ := s.Get("stable")
	if got.Summary != "changed" {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestUpdateReplacesImage(t *testing.T) {
	s, clock := newTestStore(t)
	created, err := s.Create(validFields("Pictured"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clock.Advance(time.Second)
	out, err := s.Update(created.Post.ID, created.Post.MetadataFile, Patch{}, &Image{Data: []byte("new"), Ext: ".jpg"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.Post.FeaturedImage == created.Post.FeaturedImage {
		t.Fatalf("featured image not replaced")
	}
	if out.Post.FeaturedThumb != "" {
		t.Fatalf("thumb should be cleared when the new image has none")
	}
	if len(out.Removed) != 2 || out.Removed[0] != created.Post.FeaturedImage {
		t.Fatalf("Removed = %v", out.Removed)
	}
	for _, u := range []string{created.Post.FeaturedImage, created.Post.FeaturedThumb} {
		if _, err := os.Stat(filepath.Join(s.imageDir, filepath.Base(u))); !os.IsNotExist(err) {
			t.Fatalf("old image %s not removed", u)
		}
	}
}

func TestUpdateErrors(t *testing.T) {
	s, _ := newTestStore(t)
	created, err := s.Create(validFields("Target"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Update(created.Post.ID, "missing.json", Patch{}, nil); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing file: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Update("other-id", "target.json", Patch{}, nil); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("id mismatch: expected ErrConflict, got %v", err)
	}
	if _, err := s.Update(created.Post.ID, "../target.json", Patch{}, nil); !errors.Is(err, errs.ErrInvalid) {
		t.Errorf("traversal: expected ErrInvalid, got %v", err)
	}
	empty := "   "
	if _, err := s.Update(created.Post.ID, "target.json", Patch{Title: &empty}, nil); !errors.Is(err, errs.ErrInvalid) {
		t.Errorf("empty title: expected ErrInvalid, got %v", err)
	}
}

func TestUpdateSlugCollision(t *testing.T) {
	s, clock := newTestStore(t)
	if _, err := s.Create(validFields("Taken"), testImage); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	other, err := s.Create(validFields("Other"), testImage)
	if err != nil {
		t.Fatal(err)
	}
	title := "Taken"
	out, err := s.Update(other.Post.ID, other.Post.MetadataFile, Patch{Title: &title}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.Post.Slug != "taken-2" {
		t.Fatalf("slug = %q, want taken-2", out.Post.Slug)
	}
	first, err := s.Get("taken")
	if err != nil || first.ID == other.Post.ID {
		t.Fatalf("original post was overwritten: %+v %v", first, err)
	}
}

func TestDeleteRemovesFiles(t *testing.T) {
	s, _ := newTestStore(t)
	created, err := s.Create(validFields("Doomed"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	out, err := s.Delete(created.Post.MetadataFile, created.Post.Slug)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(out.Cleanup) != 0 {
		t.Fatalf("cleanup failures: %v", out.Cleanup)
	}
	if len(out.Removed) != 2 || out.Post.ID != created.Post.ID {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if _, err := s.Get("doomed"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("post still readable: %v", err)
	}
	entries, _ := os.ReadDir(s.imageDir)
	if len(entries) != 0 {
		t.Fatalf("images left behind: %d", len(entries))
	}
}

func TestDeleteToleratesMissingImage(t *testing.T) {
	s, _ := newTestStore(t)
	created, err := s.Create(validFields("Half Gone"), testImage)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.Remove(filepath.Join(s.imageDir, filepath.Base(created.Post.FeaturedImage))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Delete(created.Post.MetadataFile, ""); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Delete("ghost.json", "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Delete("", ""); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestCorruptMetadataFile(t *testing.T) {
	s, _ := newTestStore(t)
	bad := filepath.Join(s.metaDir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Update("any-id", "bad.json", Patch{}, nil); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}

	out, err := s.Delete("bad.json", "bad")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(out.Removed) != 0 || len(out.Cleanup) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("corrupt file still on disk: %v", err)
	}
	if _, err := s.Delete("bad.json", "bad"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second Delete: expected ErrNotFound, got %v", err)
	}
}
