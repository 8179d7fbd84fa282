package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"adventkeeper/internal/calendar"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/fileproc"
	"adventkeeper/internal/logging"
	"adventkeeper/internal/media"
	"adventkeeper/internal/session"
	"adventkeeper/internal/store"
	"adventkeeper/internal/worker"

	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	log := logging.NewDefault()

	db, err := session.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	storageDir := t.TempDir()
	rpc, err := worker.NewClient(func() (*engine.Engine, error) {
		return engine.New(storageDir, log)
	}, 0, log)
	require.NoError(t, err)

	st := store.New(rpc, session.NewService(db), log)
	t.Cleanup(func() { _ = st.Close() })

	resolver, err := media.NewResolver(st, t.TempDir(), log)
	require.NoError(t, err)

	return &App{
		store:     st,
		processor: fileproc.NewProcessor(0, log),
		resolver:  resolver,
		cal:       calendar.New(7),
		out:       &bytes.Buffer{},
		log:       log,
		now: func() time.Time {
			return time.Date(2025, time.December, 20, 12, 0, 0, 0, time.UTC)
		},
	}
}

func output(a *App) *bytes.Buffer { return a.out.(*bytes.Buffer) }

func TestCmdDay_ShowsTextContent(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	require.NoError(t, a.execute(ctx, []string{"text", "2", "warm", "socks"}))

	require.NoError(t, a.execute(ctx, []string{"day", "2"}))
	require.Contains(t, output(a).String(), "warm socks")
}

func TestCmdDay_RespectsUnlockSchedule(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	require.NoError(t, a.execute(ctx, []string{"text", "24", "almost there"}))

	require.NoError(t, a.execute(ctx, []string{"day", "24"}))
	out := output(a).String()
	require.Contains(t, out, "locked until 21 December")
	require.NotContains(t, out, "almost there")

	require.NoError(t, a.execute(ctx, []string{"day", "24", "force"}))
	require.Contains(t, output(a).String(), "almost there")
}

func TestCmdDay_StagesUploadedMedia(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	pic := filepath.Join(t.TempDir(), "snow.png")
	require.NoError(t, os.WriteFile(pic, []byte("pretend png bytes"), 0o660))

	require.NoError(t, a.execute(ctx, []string{"meta", "Anna", "Ben"}))
	require.NoError(t, a.execute(ctx, []string{"file", "1", "image", pic}))
	require.NoError(t, a.execute(ctx, []string{"save"}))

	require.NoError(t, a.execute(ctx, []string{"day", "1"}))
	require.Contains(t, output(a).String(), "file://",
		"an uploaded day must resolve to a staged locator")
}

func TestCmdDay_UnsavedUploadNotStaged(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	pic := filepath.Join(t.TempDir(), "snow.png")
	require.NoError(t, os.WriteFile(pic, []byte("pretend png bytes"), 0o660))
	require.NoError(t, a.execute(ctx, []string{"file", "1", "image", pic}))

	require.NoError(t, a.execute(ctx, []string{"day", "1"}))
	require.Contains(t, output(a).String(), "save the calendar first")
}

func TestCmdDay_RemoteURL(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	require.NoError(t, a.execute(ctx, []string{"url", "3", "video", "https://youtu.be/abc"}))

	require.NoError(t, a.execute(ctx, []string{"day", "3"}))
	require.Contains(t, output(a).String(), "https://youtu.be/abc")
}

func TestCmdDay_BadArgs(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	require.Error(t, a.execute(ctx, []string{"day"}))
	require.Error(t, a.execute(ctx, []string{"day", "99"}))
	require.Error(t, a.execute(ctx, []string{"day", "1", "peek"}))
}

func TestCmdLoad_RestoresSavedCalendar(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	require.NoError(t, a.execute(ctx, []string{"meta", "Anna", "Ben"}))
	require.NoError(t, a.execute(ctx, []string{"text", "1", "hello"}))
	require.NoError(t, a.execute(ctx, []string{"save"}))

	require.NoError(t, a.execute(ctx, []string{"text", "1", "scratch", "edits"}))
	require.NoError(t, a.execute(ctx, []string{"load"}))

	require.Equal(t, "hello", a.cal.GetDay(1).Content)
	require.Contains(t, output(a).String(), "Loaded calendar: 7 days")
}

func TestCmdLoad_NothingSaved(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	require.NoError(t, a.execute(ctx, []string{"load"}))
	require.Contains(t, output(a).String(), "Nothing saved yet")
}
