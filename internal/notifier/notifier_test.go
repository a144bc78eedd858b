package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/dcalt/internal/constants"
)

// Mock Process
type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int {
	return m.pid
}

func (m *mockProcess) PPid() int {
	return 0
}

func (m *mockProcess) Executable() string {
	return m.executable
}

func TestFindAndValidateHost(t *testing.T) {
	oldFindProcessFunc := findProcessFunc
	defer func() { findProcessFunc = oldFindProcessFunc }()

	lockfilePath := LockfilePath(t.TempDir())

	tests := []struct {
		name     string
		content  string
		process  ps.Process
		wantErr  string
		wantPort string
	}{
		{name: "missing lockfile", wantErr: "not running"},
		{name: "two part format", content: "8080|12345", wantErr: "malformed"},
		{name: "garbage", content: "invalid", wantErr: "malformed"},
		{name: "empty secret", content: "8080|12345|", wantErr: "secret"},
		{name: "empty port", content: "|12345|s3cret", wantErr: "port"},
		{name: "port out of range", content: "99999|12345|s3cret", wantErr: "range"},
		{name: "bad pid", content: "8080|abc|s3cret", wantErr: "process ID"},
		{name: "process gone", content: "8080|12345|s3cret", wantErr: "not running"},
		{
			name:    "wrong executable",
			content: "8080|12345|s3cret",
			process: &mockProcess{pid: 12345, executable: "other-app"},
			wantErr: "is not",
		},
		{
			name:     "valid host",
			content:  "8080|12345|s3cret",
			process:  &mockProcess{pid: 12345, executable: "dcalt"},
			wantPort: "8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(lockfilePath)
			if tt.content != "" {
				if err := os.WriteFile(lockfilePath, []byte(tt.content), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			findProcessFunc = func(pid int) (ps.Process, error) {
				return tt.process, nil
			}

			port, secret, err := findAndValidateHost(lockfilePath)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if port != tt.wantPort || secret != "s3cret" {
				t.Errorf("got port %s secret %s", port, secret)
			}
		})
	}
}

func TestSendReload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get(constants.WidgetSecretHeader) != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		var payload ReloadPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Reason == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	parts := strings.Split(server.URL, ":")
	port := parts[len(parts)-1]
	ctx := context.Background()

	if err := sendReload(ctx, server.Client(), port, "test-secret", ReloadPayload{Reason: "snapshot"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := sendReload(ctx, server.Client(), port, "", ReloadPayload{Reason: "snapshot"}); err == nil {
		t.Error("expected error for missing secret")
	}
	if err := sendReload(ctx, server.Client(), port, "wrong-secret", ReloadPayload{Reason: "snapshot"}); err == nil {
		t.Error("expected error for wrong secret")
	}
	if err := sendReload(ctx, server.Client(), port, "test-secret", ReloadPayload{Reason: "fail"}); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestReloadWithoutHost(t *testing.T) {
	n := New(t.TempDir())
	if err := n.Reload(context.Background()); !errors.Is(err, ErrHostNotRunning) {
		t.Errorf("Reload() error = %v, want ErrHostNotRunning", err)
	}
}

func TestLockfileLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "group")

	if err := WriteLockfile(dir, 8080, 4242, "s3cret"); err != nil {
		t.Fatalf("WriteLockfile() error = %v", err)
	}
	content, err := os.ReadFile(LockfilePath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "8080|4242|s3cret" {
		t.Errorf("lockfile content = %q", content)
	}

	// Another host's pid must not remove the file.
	if err := RemoveLockfile(dir, 1); err != nil {
		t.Fatalf("RemoveLockfile() error = %v", err)
	}
	if _, err := os.Stat(LockfilePath(dir)); err != nil {
		t.Errorf("lockfile removed by foreign pid: %v", err)
	}

	if err := RemoveLockfile(dir, 4242); err != nil {
		t.Fatalf("RemoveLockfile() error = %v", err)
	}
	if _, err := os.Stat(LockfilePath(dir)); !os.IsNotExist(err) {
		t.Errorf("expected lockfile to be removed, stat err = %v", err)
	}
	if err := RemoveLockfile(dir, 4242); err != nil {
		t.Errorf("RemoveLockfile() on missing file error = %v", err)
	}
}
