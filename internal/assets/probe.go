package assets

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// AssetLoadError reports an image or audio asset that could not be loaded.
// It is never fatal: the view degrades to a placeholder or silence.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// Prober checks whether an asset can be loaded.
type Prober interface {
	Probe(ctx context.Context, assetPath string) error
}

// FileProber resolves asset paths against local directories, keyed by the
// URL prefix they are served under.
type FileProber struct {
	Roots map[string]string // URL prefix -> directory
}

func (p FileProber) Probe(_ context.Context, assetPath string) error {
	for prefix, dir := range p.Roots {
		if !strings.HasPrefix(assetPath, prefix+"/") {
			continue
		}
		rel := strings.TrimPrefix(assetPath, prefix+"/")
		if strings.Contains(rel, "..") {
			return &AssetLoadError{Path: assetPath, Err: fmt.Errorf("invalid path")}
		}
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return &AssetLoadError{Path: assetPath, Err: err}
		}
		if info.IsDir() {
			return &AssetLoadError{Path: assetPath, Err: fmt.Errorf("is a directory")}
		}
		return nil
	}
	return &AssetLoadError{Path: assetPath, Err: fmt.Errorf("no asset root for path")}
}

// LocalPath maps an asset path to its file on disk.
func (p FileProber) LocalPath(assetPath string) (string, bool) {
	for prefix, dir := range p.Roots {
		if rel, ok := strings.CutPrefix(assetPath, prefix+"/"); ok && !strings.Contains(rel, "..") {
			return filepath.Join(dir, filepath.FromSlash(rel)), true
		}
	}
	return "", false
}

// HTTPProber checks assets with a HEAD request against BaseURL.
type HTTPProber struct {
	BaseURL string
	Client  *http.Client
}

func (p HTTPProber) Probe(ctx context.Context, assetPath string) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, strings.TrimRight(p.BaseURL, "/")+assetPath, nil)
	if err != nil {
		return &AssetLoadError{Path: assetPath, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &AssetLoadError{Path: assetPath, Err: err}
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AssetLoadError{Path: assetPath, Err: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}
	return nil
}
