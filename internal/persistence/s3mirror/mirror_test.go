package s3mirror

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestClientPutsSignedObject(t *testing.T) {
	var (
		mu      sync.Mutex
		gotURI  string
		gotBody string
		gotAuth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotURI, gotBody, gotAuth = r.URL.Path, string(b), r.Header.Get("Authorization")
		mu.Unlock()
		if r.Method != http.MethodPut || r.Header.Get("x-amz-content-sha256") == "" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c, err := NewClient(Credentials{Endpoint: srv.URL, Bucket: "rail", AccessKeyID: "AK", SecretAccessKey: "SK"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	p := filepath.Join(t.TempDir(), "12.snap.zst")
	if err := os.WriteFile(p, []byte("snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.PutFile(context.Background(), "games/G-main/snapshots/12.snap.zst", p); err != nil {
		t.Fatalf("put: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotURI != "/rail/games/G-main/snapshots/12.snap.zst" || gotBody != "snapshot" {
		t.Fatalf("uri=%q body=%q", gotURI, gotBody)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AK/20260102/auto/s3/aws4_request") {
		t.Fatalf("auth=%q", gotAuth)
	}
}

func TestClientRejectsEscapingKey(t *testing.T) {
	c, err := NewClient(Credentials{Endpoint: "example.com", Bucket: "b", AccessKeyID: "a", SecretAccessKey: "s"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := c.PutFile(context.Background(), "  /  ", "x"); err == nil {
		t.Fatalf("expected empty key error")
	}
	if _, err := NewClient(Credentials{Endpoint: "example.com"}); err == nil {
		t.Fatalf("expected missing field error")
	}
}

type fakeUploader struct {
	mu    sync.Mutex
	keys  []string
	fails int
}

func (f *fakeUploader) PutFile(_ context.Context, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("flaky")
	}
	f.keys = append(f.keys, key)
	return nil
}

func TestMirrorRetriesAndPrefixesKeys(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "games", "G-main", "snapshots", "4.snap.zst")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	up := &fakeUploader{fails: 2}
	m := NewMirror(up, Options{DataDir: dir, Prefix: "/prod/", Workers: 1, Backoff: time.Millisecond}, nil)
	m.Enqueue(p)
	m.Enqueue(filepath.Join(t.TempDir(), "elsewhere.snap.zst"))
	m.Close()

	if len(up.keys) != 1 || up.keys[0] != "prod/games/G-main/snapshots/4.snap.zst" {
		t.Fatalf("keys=%v", up.keys)
	}
	st := m.Stats()
	if st.Enqueued != 2 || st.Uploaded != 1 || st.Failed != 1 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestNilMirrorIsSafe(t *testing.T) {
	var m *Mirror
	m.Enqueue("x")
	m.Close()
	if m.Stats() != (Stats{}) {
		t.Fatalf("nil stats not zero")
	}
}

func TestEnqueueAfterCloseIsIgnored(t *testing.T) {
	m := NewMirror(&fakeUploader{}, Options{DataDir: t.TempDir()}, nil)
	m.Close()
	m.Close()
	m.Enqueue("late.snap.zst")
	if st := m.Stats(); st.Enqueued != 0 {
		t.Fatalf("stats=%+v", st)
	}
}
