// Package audio plays narration clips in the terminal through an external
// player command.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/manualview/internal/assets"
)

// DefaultCommand plays wav files with ALSA.
var DefaultCommand = []string{"aplay", "-q"}

// Locator maps an asset path such as /manual_audio/x.wav to a local file.
type Locator interface {
	Locate(ctx context.Context, src string) (string, error)
}

// FileLocator finds assets in local directories.
type FileLocator struct {
	Prober assets.FileProber
}

func (l FileLocator) Locate(_ context.Context, src string) (string, error) {
	p, ok := l.Prober.LocalPath(src)
	if !ok {
		return "", &assets.AssetLoadError{Path: src, Err: errors.New("no asset root for path")}
	}
	if _, err := os.Stat(p); err != nil {
		return "", &assets.AssetLoadError{Path: src, Err: err}
	}
	return p, nil
}

// HTTPLocator downloads assets from an API server into a cache directory.
type HTTPLocator struct {
	BaseURL  string
	CacheDir string
	Client   *http.Client
}

func (l HTTPLocator) Locate(ctx context.Context, src string) (string, error) {
	dst := filepath.Join(l.CacheDir, filepath.FromSlash(path.Clean("/"+src)))
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(l.BaseURL, "/")+src, nil)
	if err != nil {
		return "", &assets.AssetLoadError{Path: src, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &assets.AssetLoadError{Path: src, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &assets.AssetLoadError{Path: src, Err: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &assets.AssetLoadError{Path: src, Err: err}
	}
	tmp.Close()
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}

// ExecElement plays one clip at a time by running Command with the clip's
// file appended. Starting a clip or pausing kills the running process.
type ExecElement struct {
	command []string
	locator Locator
	logger  *slog.Logger
	// onExit receives the generation bound when the process was started
	// and its exit error. Killed processes are not reported.
	onExit func(gen uint64, err error)

	mu    sync.Mutex
	file  string
	gen   uint64
	cmd   *exec.Cmd
	token uint64
}

// NewExecElement returns an element running command. onExit may be nil.
func NewExecElement(command []string, locator Locator, onExit func(gen uint64, err error), logger *slog.Logger) *ExecElement {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecElement{command: command, locator: locator, onExit: onExit, logger: logger}
}

// Bind tags the next Play with the playback generation gen.
func (e *ExecElement) Bind(gen uint64) {
	e.mu.Lock()
	e.gen = gen
	e.mu.Unlock()
}

func (e *ExecElement) SetSource(src string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	file, err := e.locator.Locate(ctx, src)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.file = ""
		return err
	}
	e.file = file
	return nil
}

// SetFile sets a clip that was already located on disk.
func (e *ExecElement) SetFile(file string) {
	e.mu.Lock()
	e.file = file
	e.mu.Unlock()
}

func (e *ExecElement) Play(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.killLocked()
	if e.file == "" {
		return errors.New("no audio source")
	}

	args := append(append([]string(nil), e.command[1:]...), e.file)
	cmd := exec.Command(e.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", e.command[0], err)
	}
	e.cmd = cmd
	e.token++
	token, gen := e.token, e.gen

	go func() {
		err := cmd.Wait()
		e.mu.Lock()
		current := e.token == token
		if current {
			e.cmd = nil
		}
		e.mu.Unlock()
		if current && e.onExit != nil {
			e.onExit(gen, err)
		}
	}()

	// Cancelling the play context stops this clip only.
	go func() {
		<-ctx.Done()
		e.mu.Lock()
		if e.token == token {
			e.killLocked()
		}
		e.mu.Unlock()
	}()
	return nil
}

func (e *ExecElement) Pause() {
	e.mu.Lock()
	e.killLocked()
	e.mu.Unlock()
}

func (e *ExecElement) ClearSource() {
	e.mu.Lock()
	e.file = ""
	e.mu.Unlock()
}

// killLocked stops the running process. Its exit is not reported.
func (e *ExecElement) killLocked() {
	e.token++
	if e.cmd == nil {
		return
	}
	if e.cmd.Process != nil {
		if err := e.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			e.logger.Debug("killing audio player", "error", err)
		}
	}
	e.cmd = nil
}
