package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/huapala/mele-archive/internal/domain"
	"github.com/huapala/mele-archive/internal/engine"
)

// recordingSink collects stored sources for assertions.
type recordingSink struct {
	mu      sync.Mutex
	sources []*domain.MeleSource
	err     error
}

func (s *recordingSink) Store(_ context.Context, src *domain.MeleSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sources = append(s.sources, src)
	return nil
}

func (s *recordingSink) byCanonicalID(id string) *domain.MeleSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.CanonicalID == id {
			return src
		}
	}
	return nil
}

// writeSongFile creates a minimal two-column source page in dir.
// Each row is one verse; cell lines are separated by <br>.
func writeSongFile(t *testing.T, dir, name, title string, rows [][2]string) string {
	t.Helper()

	body := "<html><head><title>" + title + "</title></head><body><table>"
	for _, row := range rows {
		body += "<tr><td>" + row[0] + "</td><td>" + row[1] + "</td></tr>"
	}
	body += "</table></body></html>"

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write song file: %v", err)
	}
	return path
}

func testRows() [][2]string {
	return [][2]string{
		{"He aloha nui<br>No ka ʻāina", "Great is the love<br>For the land"},
		{"E ō mai<br>E nā hoa", "Answer the call<br>O companions"},
	}
}

func TestRun_ProcessesFiles(t *testing.T) {
	dir := t.TempDir()
	fileA := writeSongFile(t, dir, "aloha.html", "He Aloha Nui", testRows())
	fileB := writeSongFile(t, dir, "hoa.html", "E Nā Hoa", testRows())

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 2}, nil)

	summary, err := runner.Run(context.Background(), []string{fileA, fileB})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
	if summary.Imported != 2 {
		t.Errorf("imported = %d, want 2", summary.Imported)
	}
	if summary.Failed != 0 || summary.Flagged != 0 {
		t.Errorf("failed = %d, flagged = %d, want 0, 0", summary.Failed, summary.Flagged)
	}
	if summary.AverageScore != 100 {
		t.Errorf("average score = %v, want 100", summary.AverageScore)
	}

	// Results are ordered by source file.
	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(summary.Results))
	}
	if summary.Results[0].SourceFile > summary.Results[1].SourceFile {
		t.Error("results not ordered by source file")
	}

	src := sink.byCanonicalID("he_aloha_nui_canonical")
	if src == nil {
		t.Fatal("sink did not receive he_aloha_nui_canonical")
	}
	if src.Title != "He Aloha Nui" {
		t.Errorf("title = %q", src.Title)
	}
	if src.SourceFile != "aloha.html" {
		t.Errorf("source file = %q, want base name", src.SourceFile)
	}
	if src.Structure != domain.StructureTwoLineStrophic {
		t.Errorf("structure = %q, want two_line_strophic", src.Structure)
	}
	if src.Status != domain.StatusImported {
		t.Errorf("status = %q, want %q", src.Status, domain.StatusImported)
	}
	if len(src.Document.Sections) != 2 {
		t.Errorf("document sections = %d, want 2", len(src.Document.Sections))
	}
}

func TestRun_UnreadableFileDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	good := writeSongFile(t, dir, "good.html", "Good Song", testRows())
	missing := filepath.Join(dir, "missing.html")

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 2}, nil)

	summary, err := runner.Run(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
	if summary.Imported != 1 {
		t.Errorf("imported = %d, want 1", summary.Imported)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}

	for _, res := range summary.Results {
		if res.SourceFile == missing {
			if res.Status != string(domain.StatusFailed) {
				t.Errorf("missing file status = %q, want failed", res.Status)
			}
			if res.Error == "" {
				t.Error("missing file result must carry the error")
			}
		}
	}
}

func TestRun_SinkErrorMarksFailed(t *testing.T) {
	dir := t.TempDir()
	file := writeSongFile(t, dir, "song.html", "Sink Error Song", testRows())

	sink := &recordingSink{err: errors.New("connection refused")}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 1}, nil)

	summary, err := runner.Run(context.Background(), []string{file})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Failed != 1 {
		t.Fatalf("failed = %d, want 1", summary.Failed)
	}
	res := summary.Results[0]
	if res.Error != "connection refused" {
		t.Errorf("error = %q", res.Error)
	}
	// The document was still processed; its verdict stays in the result.
	if res.CanonicalID != "sink_error_song_canonical" {
		t.Errorf("canonical_id = %q", res.CanonicalID)
	}
	if res.QualityScore != 100 {
		t.Errorf("quality score = %v, want 100", res.QualityScore)
	}
}

func TestRun_FlaggedDocument(t *testing.T) {
	dir := t.TempDir()
	// Hawaiian side only, with an English side elsewhere missing: a page
	// whose English cells are empty scores below the review threshold.
	rows := [][2]string{
		{"He aloha nui<br>No ka ʻāina", ""},
		{"E ō mai<br>E nā hoa", ""},
	}
	file := writeSongFile(t, dir, "flagged.html", "Flagged Song", rows)

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 1}, nil)

	summary, err := runner.Run(context.Background(), []string{file})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Flagged != 1 {
		t.Fatalf("flagged = %d, want 1 (results: %+v)", summary.Flagged, summary.Results)
	}

	src := sink.byCanonicalID("flagged_song_canonical")
	if src == nil {
		t.Fatal("sink did not receive flagged source")
	}
	if src.Status != domain.StatusFlagged {
		t.Errorf("status = %q, want %q", src.Status, domain.StatusFlagged)
	}
	if !src.ManualReviewRequired {
		t.Error("expected manual review flag")
	}
	if src.SongType != domain.SongTypeHawaiianOnly {
		t.Errorf("song type = %q, want hawaiian_only", src.SongType)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	file := writeSongFile(t, dir, "song.html", "Canceled Song", testRows())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 1}, nil)

	summary, err := runner.Run(ctx, []string{file})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary == nil {
		t.Fatal("expected partial summary even when canceled")
	}
	if summary.Processed != 0 {
		t.Errorf("processed = %d, want 0 for pre-canceled context", summary.Processed)
	}
}

func TestRun_TitleFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	file := writeSongFile(t, dir, "kaulana_na_pua.html", "", testRows())

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 1}, nil)

	if _, err := runner.Run(context.Background(), []string{file}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	src := sink.byCanonicalID("kaulana_na_pua_canonical")
	if src == nil {
		t.Fatal("expected canonical ID derived from file name")
	}
	if src.Title != "kaulana_na_pua" {
		t.Errorf("title = %q, want file stem", src.Title)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.yaml")

	summary := &Summary{
		Processed:    2,
		Imported:     1,
		Flagged:      1,
		AverageScore: 82.5,
		Duration:     "120ms",
		Results: []DocResult{
			{SourceFile: "a.html", CanonicalID: "a_canonical", Status: "reviewed_and_imported", QualityScore: 100},
			{SourceFile: "b.html", CanonicalID: "b_canonical", Status: "flagged_for_review", QualityScore: 65, ManualReview: true, Issues: 2},
		},
	}

	if err := WriteReport(path, summary); err != nil {
		t.Fatalf("WriteReport returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var got Summary
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got.Processed != 2 || got.Flagged != 1 {
		t.Errorf("round trip counts: %+v", got)
	}
	if len(got.Results) != 2 || got.Results[1].Issues != 2 {
		t.Errorf("round trip results: %+v", got.Results)
	}
}

func TestRun_ManyFilesBoundedWorkers(t *testing.T) {
	dir := t.TempDir()

	var files []string
	for i := range 10 {
		name := fmt.Sprintf("song_%02d.html", i)
		title := fmt.Sprintf("Song Number %02d", i)
		files = append(files, writeSongFile(t, dir, name, title, testRows()))
	}

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 3}, nil)

	summary, err := runner.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Imported != 10 {
		t.Errorf("imported = %d, want 10", summary.Imported)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.sources) != 10 {
		t.Errorf("sink received %d sources, want 10", len(sink.sources))
	}
}

func TestRun_IssueCounts(t *testing.T) {
	dir := t.TempDir()
	rows := [][2]string{
		{"He aloha nui<br>No ka ʻāina", ""},
		{"E ō mai<br>E nā hoa", ""},
	}
	file := writeSongFile(t, dir, "issues.html", "Issue Count Song", rows)

	sink := &recordingSink{}
	runner := NewRunner(engine.New(engine.Config{}, nil), sink, Config{Workers: 1}, nil)

	summary, err := runner.Run(context.Background(), []string{file})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := summary.IssueCounts[string(domain.IssueMissingTranslation)]; got != 2 {
		t.Errorf("missing_translation count = %d, want one per untranslated verse", got)
	}
	if len(summary.Results) != 1 || len(summary.Results[0].IssueTypes) == 0 {
		t.Errorf("result should list its issue types: %+v", summary.Results)
	}
}
