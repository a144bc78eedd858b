package widget

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/notifier"
	"github.com/julianstephens/dcalt/internal/snapshot"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		snap snapshot.Snapshot
		want []string
	}{
		{"over target", snapshot.Snapshot{Target: 2000, Current: 2120}, []string{"-120 cals remaining", "2120 / 2000 (106%)"}},
		{"under target", snapshot.Snapshot{Target: 2000, Current: 600, Accent: "#00FF00"}, []string{"1400 cals remaining", "600 / 2000 (30%)"}},
		{"empty surface", snapshot.Snapshot{}, []string{"0 cals remaining", "0 / 0 (0%)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render(tt.snap)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() = %q, missing %q", out, want)
				}
			}
		})
	}
}

func TestReloadHandler(t *testing.T) {
	h := NewHost(snapshot.NewDiskvSurface(t.TempDir()), &syncBuffer{})
	server := httptest.NewServer(h.handler())
	defer server.Close()

	post := func(secret string) int {
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/reload", strings.NewReader("{}"))
		if secret != "" {
			req.Header.Set(constants.WidgetSecretHeader, secret)
		}
		res, err := server.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		return res.StatusCode
	}

	if code := post(""); code != http.StatusUnauthorized {
		t.Errorf("missing secret status = %d, want 401", code)
	}
	if code := post("wrong"); code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", code)
	}
	if code := post(h.secret[:len(h.secret)-1]); code != http.StatusUnauthorized {
		t.Errorf("truncated secret status = %d, want 401", code)
	}
	if code := post(h.secret); code != http.StatusAccepted {
		t.Errorf("valid reload status = %d, want 202", code)
	}
	// A second request while one is queued is folded into it.
	if code := post(h.secret); code != http.StatusAccepted {
		t.Errorf("queued reload status = %d, want 202", code)
	}
	if len(h.requests) != 1 {
		t.Errorf("queued requests = %d, want 1", len(h.requests))
	}

	res, err := server.Client().Get(server.URL + "/reload")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", res.StatusCode)
	}
}

func TestServeRendersAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	surface := snapshot.NewDiskvSurface(dir)
	ctx := context.Background()
	if err := snapshot.NewPublisher(surface, nil).Publish(ctx, snapshot.Snapshot{Target: 2000, Current: 570}, false); err != nil {
		t.Fatal(err)
	}

	out := &syncBuffer{}
	h := NewHost(surface, out)
	h.Window = 10 * time.Millisecond

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- h.Serve(serveCtx) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), "1430 cals remaining") })
	waitFor(t, func() bool {
		_, err := os.Stat(notifier.LockfilePath(dir))
		return err == nil
	})

	content, err := os.ReadFile(notifier.LockfilePath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(content), fmt.Sprintf("|%d|%s", os.Getpid(), h.secret)) {
		t.Errorf("lockfile content = %q", content)
	}

	// A publish from another process shows up without a reload request.
	if err := snapshot.NewPublisher(snapshot.NewDiskvSurface(dir), nil).Publish(ctx, snapshot.Snapshot{Target: 2000, Current: 2120}, false); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return strings.Contains(out.String(), "-120 cals remaining") })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if _, err := os.Stat(notifier.LockfilePath(dir)); !os.IsNotExist(err) {
		t.Errorf("expected lockfile to be removed, stat err = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
