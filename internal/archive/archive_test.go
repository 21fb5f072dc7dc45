// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.ArchiveConfig{Dir: filepath.Join(t.TempDir(), "archive")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntry(keyword string) *Entry {
	return &Entry{
		Keyword:  keyword,
		Outline:  "I. Definition\nII. Rules",
		Markdown: "# " + keyword + " explained\n\nBody about " + keyword + ".",
		Sections: []types.Section{{Name: "introduction", Content: "Body about " + keyword + "."}},
		Keywords: []string{keyword + " rules"},
	}
}

func saveHelper(t *testing.T, s *Store, e *Entry) string {
	t.Helper()
	id, err := s.Save(context.Background(), e)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	store := testStore(t)
	if _, err := os.Stat(filepath.Join(store.Dir(), dbFile)); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore(types.ArchiveConfig{}); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestSaveAndGet(t *testing.T) {
	store := testStore(t)
	e := sampleEntry("roth ira")
	id := saveHelper(t, store, e)

	if id == "" || e.ID != id {
		t.Fatalf("Save assigned id %q, entry has %q", id, e.ID)
	}

	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "roth ira explained" {
		t.Errorf("Title = %q, want first H1", got.Title)
	}
	if got.Markdown != e.Markdown || got.Outline != e.Outline {
		t.Errorf("content mismatch: %+v", got)
	}
	if len(got.Sections) != 1 || got.Sections[0].Name != "introduction" {
		t.Errorf("Sections = %+v", got.Sections)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "roth ira rules" {
		t.Errorf("Keywords = %v", got.Keywords)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	store := testStore(t)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	e := sampleEntry("annuity")
	id := saveHelper(t, store, e)

	store.now = func() time.Time { return first.Add(time.Hour) }
	e.Markdown = "# Annuities\n\nRevised."
	e.Title = ""
	saveHelper(t, store, e)

	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Annuities" || !strings.Contains(got.Markdown, "Revised.") {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(first) || !got.UpdatedAt.Equal(first.Add(time.Hour)) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}

	all, err := store.List(context.Background(), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("List returned %d entries, want 1", len(all))
	}
}

func TestSaveRequiresKeyword(t *testing.T) {
	store := testStore(t)
	_, err := store.Save(context.Background(), &Entry{Markdown: "text"})
	if types.KindOf(err) != types.FailureValidation {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestTitleFallsBackToKeyword(t *testing.T) {
	store := testStore(t)
	id := saveHelper(t, store, &Entry{Keyword: "rmd", Markdown: "## Only subheadings\n\ntext"})
	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "rmd" {
		t.Errorf("Title = %q, want keyword", got.Title)
	}
}

func TestGetNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrderAndFilters(t *testing.T) {
	store := testStore(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, kw := range []string{"roth ira", "annuity", "401(k) vesting", "Roth IRA"} {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		saveHelper(t, store, sampleEntry(kw))
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"newest first", Filter{}, []string{"Roth IRA", "401(k) vesting", "annuity", "roth ira"}},
		{"limit", Filter{Limit: 2}, []string{"Roth IRA", "401(k) vesting"}},
		{"keyword ignores case", Filter{Keyword: "ROTH IRA"}, []string{"Roth IRA", "roth ira"}},
		{"query matches body", Filter{Query: "vesting"}, []string{"401(k) vesting"}},
		{"query escapes wildcards", Filter{Query: "%"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var kws []string
			for _, e := range got {
				kws = append(kws, e.Keyword)
			}
			if strings.Join(kws, "|") != strings.Join(tt.want, "|") {
				t.Errorf("keywords = %v, want %v", kws, tt.want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	id := saveHelper(t, store, sampleEntry("annuity"))

	if err := store.Delete(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := store.Delete(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: %v, want ErrNotFound", err)
	}
}

func TestExportYAML(t *testing.T) {
	store := testStore(t)
	saveHelper(t, store, sampleEntry("roth ira"))
	saveHelper(t, store, sampleEntry("annuity"))

	var buf bytes.Buffer
	if err := store.ExportYAML(context.Background(), &buf, Filter{Keyword: "annuity"}); err != nil {
		t.Fatal(err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(entries) != 1 || entries[0].Keyword != "annuity" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExportJSON(t *testing.T) {
	store := testStore(t)
	saveHelper(t, store, sampleEntry("roth ira"))
	saveHelper(t, store, sampleEntry("annuity"))

	var buf bytes.Buffer
	if err := store.ExportJSON(context.Background(), &buf, Filter{}); err != nil {
		t.Fatal(err)
	}
	var entries []Entry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestFromSession(t *testing.T) {
	sess := session.New("401(k) vesting")
	if _, err := FromSession(sess); types.KindOf(err) != types.FailureValidation {
		t.Fatalf("empty session: err = %v", err)
	}

	sess.Article.Set("introduction", "# 401(k) vesting\n\nIntro.")
	sess.Article.Set("benefits", "## Benefits\n\nMore.")
	sess.Keywords = []string{"cliff vesting"}

	e, err := FromSession(sess)
	if err != nil {
		t.Fatal(err)
	}
	if e.SessionID != sess.ID || e.Keyword != "401(k) vesting" || e.Title != "401(k) vesting" {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Sections) != 2 {
		t.Errorf("Sections = %+v, want only generated ones", e.Sections)
	}
	if !strings.Contains(e.Markdown, "Intro.") || !strings.Contains(e.Markdown, "More.") {
		t.Errorf("Markdown = %q", e.Markdown)
	}
}

func TestSaveSessionUpdatesItsEntry(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess := session.New("annuity")
	sess.Article.Set("introduction", "# Annuity\n\nFirst draft.")
	id1, err := store.SaveSession(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	first, err := store.Get(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}

	sess.Article.Set("introduction", "# Annuity\n\nSecond draft.")
	id2, err := store.SaveSession(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 {
		t.Fatalf("re-saving created a new entry: %s != %s", id2, id1)
	}

	entries, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if !strings.Contains(entries[0].Markdown, "Second draft.") {
		t.Errorf("Markdown = %q, want the updated text", entries[0].Markdown)
	}
	if !entries[0].CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, entries[0].CreatedAt)
	}

	other := session.New("fixed annuity")
	other.ID = sess.ID
	other.Article.Set("introduction", "# Fixed annuity\n\nText.")
	id3, err := store.SaveSession(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if id3 == id1 {
		t.Error("a different keyword from the same session must get its own entry")
	}
}
