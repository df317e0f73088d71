package main_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TestCLI_OfflineServer drives the built binary end to end against a local
// HTTP server: import an article, re-import it, then analyze a text whose
// kanji the import already recorded.
func TestCLI_OfflineServer(t *testing.T) {
	tmp := t.TempDir()

	body, err := os.ReadFile(filepath.Join("testdata", "nhk_article.html"))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}))
	defer srv.Close()

	dbPath := filepath.Join(tmp, "kanjidex.db")
	bin := filepath.Join(tmp, "kanjidex.bin")

	// Build the CLI binary (use full import path so it builds correctly regardless of the current working directory)
	build := exec.Command("go", "build", "-o", bin, "github.com/kanjidex/kanjidex/cmd/kanjidex")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build CLI: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	run := func(stdin string, args ...string) string {
		cmd := exec.CommandContext(ctx, bin, args...)
		cmd.Dir = tmp
		if stdin != "" {
			cmd.Stdin = strings.NewReader(stdin)
		}
		out, err := cmd.CombinedOutput()
		if ctx.Err() == context.DeadlineExceeded {
			t.Fatalf("cli timed out, output:\n%s", out)
		}
		if err != nil {
			t.Fatalf("cli %v failed: %v\noutput:\n%s", args, err, out)
		}
		return string(out)
	}

	out := run("", "import", "--url", srv.URL, "--db", dbPath)
	if !strings.Contains(out, "Import complete") {
		t.Fatalf("unexpected import output:\n%s", out)
	}

	// A second import of the same article must resume past the end and
	// link nothing.
	out = run("", "import", "--url", srv.URL, "--db", dbPath)
	if !strings.Contains(out, "Linked 0 kanji occurrences") {
		t.Fatalf("expected re-import to be a no-op, got:\n%s", out)
	}

	// The article contained 大, 雨, 川, and 水, so they are known now.
	out = run("大雨で川の水が上がります。", "analyze", "--db", dbPath)
	if !strings.Contains(out, "Known kanji:") {
		t.Fatalf("expected analysis to report known kanji, got:\n%s", out)
	}
	if !strings.Contains(out, "Score:") {
		t.Fatalf("expected a score line, got:\n%s", out)
	}

	out = run("", "stats", "--db", dbPath)
	if !strings.Contains(out, "Tracked:") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}

	dbConn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer dbConn.Close()

	var cnt int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM sources").Scan(&cnt); err != nil {
		t.Fatalf("db query failed: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected exactly one source in DB, found %d", cnt)
	}
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM exposures").Scan(&cnt); err != nil {
		t.Fatalf("db query failed: %v", err)
	}
	if cnt == 0 {
		t.Fatalf("expected exposure rows after import, found 0")
	}
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM kanji_sources").Scan(&cnt); err != nil {
		t.Fatalf("db query failed: %v", err)
	}
	if cnt == 0 {
		t.Fatalf("expected kanji links after import, found 0")
	}
}
