// Package notifier delivers reload signals to a running widget host over the
// localhost webhook advertised in its lockfile.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/dcalt/internal/constants"
)

var findProcessFunc = ps.FindProcess

// ErrHostNotRunning is returned when no live widget host owns the lockfile.
var ErrHostNotRunning = errors.New("widget host is not running")

type Notifier struct {
	lockfilePath string
	client       *http.Client
}

type ReloadPayload struct {
	Reason string `json:"reason"`
}

// New signals the host whose lockfile lives in dir.
func New(dir string) *Notifier {
	return &Notifier{
		lockfilePath: LockfilePath(dir),
		client:       &http.Client{Timeout: constants.ReloadRequestTimeout},
	}
}

// LockfilePath returns where a host serving dir advertises itself.
func LockfilePath(dir string) string {
	return filepath.Join(dir, constants.WidgetLockfileName)
}

// Reload asks the host to re-read the surface and re-render.
func (n *Notifier) Reload(ctx context.Context) error {
	port, secret, err := findAndValidateHost(n.lockfilePath)
	if err != nil {
		return err
	}
	return sendReload(ctx, n.client, port, secret, ReloadPayload{Reason: "snapshot"})
}

// WriteLockfile advertises a host listening on port. The file is readable by
// the owner only because it carries the secret.
func WriteLockfile(dir string, port, pid int, secret string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	content := fmt.Sprintf("%d|%d|%s", port, pid, secret)
	if err := os.WriteFile(LockfilePath(dir), []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

// RemoveLockfile deletes the lockfile if it still belongs to pid.
func RemoveLockfile(dir string, pid int) error {
	path := LockfilePath(dir)
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 || parts[1] != strconv.Itoa(pid) {
		return nil
	}
	return os.Remove(path)
}

func findAndValidateHost(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrHostNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := parts[0]
	if strings.TrimSpace(port) == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", fmt.Errorf("%w: no process with PID %d", ErrHostNotRunning, pid)
	}

	if !strings.HasPrefix(process.Executable(), constants.WidgetExecutablePrefix) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.AppName, process.Executable())
	}

	return port, secret, nil
}

func sendReload(ctx context.Context, client *http.Client, port, secret string, payload ReloadPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s/reload", port)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.WidgetSecretHeader, secret)

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK || res.StatusCode == http.StatusAccepted {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("reload failed with status %d: %s", res.StatusCode, string(body))
}
