package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/eringen/studio/blog"
	"github.com/eringen/studio/ledger"
)

func TestAdminDashboardEscapesAndLists(t *testing.T) {
	var buf bytes.Buffer
	err := AdminDashboard(Dashboard{
		SiteName:  "Studio",
		CSRFToken: "tok",
		Posts: []blog.Post{{
			Title: "<script>alert(1)</script>", Slug: "x", Status: blog.StatusDraft,
			UpdatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), MetadataFile: "x.json",
		}},
		Images:  []CategoryCount{{Label: "Logos", Dir: "logos", Count: 3}},
		Cleanup: []ledger.Entry{{ID: 7, Op: "remove image", Target: "/images/blog/a.jpg", Err: "busy"}},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>alert") {
		t.Fatalf("title not escaped")
	}
	for _, want := range []string{"&lt;script&gt;", "x.json", "/admin/cleanup/7/resolve/", `value="tok"`, "<td>3</td>"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestAdminLoginShowsError(t *testing.T) {
	var buf bytes.Buffer
	if err := AdminLogin(true, "tok").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Invalid password") {
		t.Fatalf("error message missing")
	}
}

func TestErrorPages(t *testing.T) {
	var buf bytes.Buffer
	if err := NotFound().Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Page not found") {
		t.Fatalf("not found page: %s", buf.String())
	}
}
