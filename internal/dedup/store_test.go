package dedup

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// --- Canonicalization Tests ---

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase scheme and host", "HTTP://News.SouthCN.com/a", "http://news.southcn.com/a"},
		{"strip fragment", "https://news.ycwb.com/a.htm#section2", "https://news.ycwb.com/a.htm"},
		{"strip default http port", "http://www.chinanews.com:80/b.shtml", "http://www.chinanews.com/b.shtml"},
		{"strip default https port", "https://www.chinanews.com:443/b.shtml", "https://www.chinanews.com/b.shtml"},
		{"keep custom port", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"sort query params", "https://example.com/s?b=2&a=1", "https://example.com/s?a=1&b=2"},
		{"trim trailing slash", "https://example.com/path/", "https://example.com/path"},
		{"root path stays", "https://example.com/", "https://example.com/"},
		{"empty path becomes root", "https://example.com", "https://example.com/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalizeURL(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// --- Memory Store Tests ---

func TestMemorySeenMark(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	const u = "https://news.southcn.com/node/a1.html"
	if seen, _ := s.Seen(u); seen {
		t.Error("fresh store should not have seen the url")
	}
	if err := s.Mark(u); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if seen, _ := s.Seen(u); !seen {
		t.Error("expected url to be seen after mark")
	}
}

func TestMemoryCanonicalDuplicatesCountOnce(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	s.Mark("https://News.SouthCN.com/a/")
	s.Mark("https://news.southcn.com/a")
	s.Mark("https://news.southcn.com/a#top")

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 unique url, got %d", n)
	}

	if seen, _ := s.Seen("HTTPS://news.southcn.com/a"); !seen {
		t.Error("expected canonical variant to be seen")
	}
}

// --- Bolt Store Tests ---

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.db")

	s, err := Open(path, testLogger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Mark("https://news.ycwb.com/content_53731774.htm"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path, testLogger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	seen, err := s.Seen("https://news.ycwb.com/content_53731774.htm")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	if !seen {
		t.Error("expected url to survive a reopen")
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}

func TestBoltCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "seen.db")

	s, err := Open(path, testLogger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected database file to exist: %v", err)
	}
}

func TestOpenEmptyPathUsesMemory(t *testing.T) {
	s, err := Open("", testLogger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*Memory); !ok {
		t.Fatalf("expected in-memory store, got %T", s)
	}
}
