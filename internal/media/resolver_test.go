package media

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"adventkeeper/internal/engine"
	"adventkeeper/internal/logging"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	files map[string]*engine.MediaFile
	calls int
}

func (f *fakeFetcher) GetMediaFile(ctx context.Context, path string) (*engine.MediaFile, error) {
	f.calls++
	mf, ok := f.files[path]
	if !ok {
		return nil, errors.New("no such media")
	}
	return mf, nil
}

func newTestResolver(t *testing.T) (*Resolver, *fakeFetcher) {
	t.Helper()

	fetcher := &fakeFetcher{files: map[string]*engine.MediaFile{
		"media/day_2_calendar.json": {Data: []byte("png bytes"), Mime: "image/png"},
	}}

	r, err := NewResolver(fetcher, t.TempDir(), logging.NewDefault())
	require.NoError(t, err)
	return r, fetcher
}

func stagedPath(t *testing.T, locator string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(locator, locatorPrefix))
	return strings.TrimPrefix(locator, locatorPrefix)
}

func TestResolve_PassThrough(t *testing.T) {
	ctx := context.Background()
	r, fetcher := newTestResolver(t)

	for _, content := range []string{
		"https://example.com/pic.png",
		"data:image/png;base64,AA==",
		"file:///tmp/already-staged.png",
		"plain text day",
		"media_ref:current_calendar_3",
	} {
		got, err := r.Resolve(ctx, content)
		require.NoError(t, err)
		require.Equal(t, content, got)
	}
	require.Zero(t, fetcher.calls)
}

func TestResolve_StagesAndCaches(t *testing.T) {
	ctx := context.Background()
	r, fetcher := newTestResolver(t)

	loc, err := r.Resolve(ctx, "media/day_2_calendar.json")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(loc, ".png"), "extension should follow the mime type")

	data, err := os.ReadFile(stagedPath(t, loc))
	require.NoError(t, err)
	require.Equal(t, []byte("png bytes"), data)

	again, err := r.Resolve(ctx, "media/day_2_calendar.json")
	require.NoError(t, err)
	require.Equal(t, loc, again)
	require.Equal(t, 1, fetcher.calls, "second resolve must come from the cache")
}

func TestResolve_ConcurrentSamePathStagesOnce(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t)

	locs := make([]string, 8)
	var wg sync.WaitGroup
	for i := range locs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loc, err := r.Resolve(ctx, "media/day_2_calendar.json")
			require.NoError(t, err)
			locs[i] = loc
		}(i)
	}
	wg.Wait()

	for _, loc := range locs {
		require.Equal(t, locs[0], loc, "every caller must see the same locator")
	}

	entries, err := os.ReadDir(r.stagingDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "losing staged files must be removed")
}

func TestResolve_FetchFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t)

	got, err := r.Resolve(ctx, "media/day_9_calendar.json")
	require.NoError(t, err)
	require.Equal(t, "media/day_9_calendar.json", got,
		"an unresolvable path degrades to the raw content, not an error")
}

func TestRevoke_RemovesStagedFile(t *testing.T) {
	ctx := context.Background()
	r, fetcher := newTestResolver(t)

	loc, err := r.Resolve(ctx, "media/day_2_calendar.json")
	require.NoError(t, err)
	staged := stagedPath(t, loc)

	r.Revoke("media/day_2_calendar.json")
	_, err = os.Stat(staged)
	require.True(t, os.IsNotExist(err))

	// Revoking again, or revoking something never resolved, is a no-op.
	r.Revoke("media/day_2_calendar.json")
	r.Revoke("media/day_7_calendar.json")

	// Next resolve goes back to the fetcher.
	_, err = r.Resolve(ctx, "media/day_2_calendar.json")
	require.NoError(t, err)
	require.Equal(t, 2, fetcher.calls)
}

func TestRevokeAll(t *testing.T) {
	ctx := context.Background()
	r, fetcher := newTestResolver(t)
	fetcher.files["media/day_3_calendar.json"] = &engine.MediaFile{Data: []byte("mp4 bytes"), Mime: "video/mp4"}

	loc2, err := r.Resolve(ctx, "media/day_2_calendar.json")
	require.NoError(t, err)
	loc3, err := r.Resolve(ctx, "media/day_3_calendar.json")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(loc3, ".mp4"))

	r.RevokeAll()

	for _, loc := range []string{loc2, loc3} {
		_, err := os.Stat(stagedPath(t, loc))
		require.True(t, os.IsNotExist(err))
	}
}

func TestExtensionFor(t *testing.T) {
	require.Equal(t, ".jpg", extensionFor("image/jpeg"))
	require.Equal(t, ".webm", extensionFor("video/webm"))
	require.Equal(t, ".bin", extensionFor("application/octet-stream"))
}
