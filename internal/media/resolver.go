// Package media translates a day's stored content into a renderable locator
// and caches the mapping so bytes are not re-read on every render.
//
// Locators backed by staged files are real resources: the platform never
// collects them, so viewers must call Revoke on teardown (and RevokeAll on
// full calendar teardown) or the staged files live for the rest of the
// session.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"adventkeeper/internal/blobcodec"
	"adventkeeper/internal/common"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/filex"
	"adventkeeper/internal/logging"

	"github.com/google/uuid"
)

const locatorPrefix = "file://"

// Fetcher fetches raw media bytes from the storage engine. *store.Store
// satisfies this.
type Fetcher interface {
	GetMediaFile(ctx context.Context, path string) (*engine.MediaFile, error)
}

// Resolver materializes media records into staged files and hands out
// file:// locators. Cache entries are keyed by the engine-relative media
// path.
type Resolver struct {
	fetcher    Fetcher
	stagingDir string
	log        logging.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver prepares the staging directory and returns a resolver.
func NewResolver(fetcher Fetcher, stagingDir string, log logging.Logger) (*Resolver, error) {
	dir, err := filex.EnsureDir(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedEnvironment, err)
	}

	return &Resolver{
		fetcher:    fetcher,
		stagingDir: dir,
		log:        log.With("component", "media-resolver"),
		cache:      make(map[string]string),
	}, nil
}

// Resolve returns a renderable locator for content. Remote URLs, embedded
// payloads and existing file locators pass through unchanged. Private-area
// media paths are fetched once, staged and cached.
func (r *Resolver) Resolve(ctx context.Context, content string) (string, error) {
	if blobcodec.IsRemoteURL(content) || blobcodec.IsEmbedded(content) ||
		strings.HasPrefix(content, locatorPrefix) {
		return content, nil
	}

	if strings.HasPrefix(content, common.MediaDirName+"/") {
		r.mu.Lock()
		if loc, ok := r.cache[content]; ok {
			r.mu.Unlock()
			return loc, nil
		}
		r.mu.Unlock()

		loc, err := r.materialize(ctx, content)
		if err != nil {
			r.log.Warn(ctx, "failed to resolve media path", "path", content, "error", err)
			return content, nil
		}

		// A concurrent resolve may have staged the same path meanwhile; keep
		// its entry and drop ours so no staged file is orphaned.
		r.mu.Lock()
		if existing, ok := r.cache[content]; ok {
			r.mu.Unlock()
			r.release(loc)
			return existing, nil
		}
		r.cache[content] = loc
		r.mu.Unlock()
		return loc, nil
	}

	// Anything else (plain text, media refs left by a degraded load) is
	// returned as-is.
	return content, nil
}

func (r *Resolver) materialize(ctx context.Context, path string) (string, error) {
	f, err := r.fetcher.GetMediaFile(ctx, path)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + extensionFor(f.Mime)
	staged := filepath.Join(r.stagingDir, name)

	if err := os.WriteFile(staged, f.Data, 0o660); err != nil {
		return "", fmt.Errorf("stage media file: %w", err)
	}

	return locatorPrefix + staged, nil
}

// Revoke releases the resource behind the locator cached for path, if any.
func (r *Resolver) Revoke(path string) {
	r.mu.Lock()
	loc, ok := r.cache[path]
	if ok {
		delete(r.cache, path)
	}
	r.mu.Unlock()

	if ok {
		r.release(loc)
	}
}

// RevokeAll drains the whole cache. Used on full calendar teardown.
func (r *Resolver) RevokeAll() {
	r.mu.Lock()
	stale := r.cache
	r.cache = make(map[string]string)
	r.mu.Unlock()

	for _, loc := range stale {
		r.release(loc)
	}
}

func (r *Resolver) release(locator string) {
	if !strings.HasPrefix(locator, locatorPrefix) {
		return
	}
	if err := os.Remove(strings.TrimPrefix(locator, locatorPrefix)); err != nil && !os.IsNotExist(err) {
		r.log.Warn(context.Background(), "failed to remove staged media", "error", err)
	}
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
