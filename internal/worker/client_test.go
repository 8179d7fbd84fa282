package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"adventkeeper/internal/calendar"
	"adventkeeper/internal/common"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/logging"

	"github.com/stretchr/testify/require"
)

func tempEngineFactory(t *testing.T) EngineFactory {
	t.Helper()
	dir := t.TempDir()
	return func() (*engine.Engine, error) {
		return engine.New(dir, logging.NewDefault())
	}
}

func savedCalendar() *calendar.Calendar {
	c := calendar.New(7)
	c.CreatedBy = "Anna"
	c.To = "Ben"
	c.SetDay(calendar.Day{
		Day: 1, Type: calendar.ContentTypeText, Source: calendar.SourceUpload,
		Content: "Hello",
	})
	return c
}

func TestNewClient_RequiresFactory(t *testing.T) {
	_, err := NewClient(nil, 0, logging.NewDefault())
	require.ErrorIs(t, err, common.ErrUnsupportedEnvironment)
}

func TestCall_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewClient(tempEngineFactory(t), 0, logging.NewDefault())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Call(ctx, MsgSave, savedCalendar(), "")
	require.NoError(t, err)

	data, err := c.Call(ctx, MsgLoad, nil, "")
	require.NoError(t, err)

	var got calendar.Calendar
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "Hello", got.GetDay(1).Content)
}

func TestCall_CorrelatesConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	c, err := NewClient(tempEngineFactory(t), 0, logging.NewDefault())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Call(ctx, MsgSave, savedCalendar(), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			data, err := c.Call(ctx, MsgHasData, nil, "")
			require.NoError(t, err)
			var has bool
			require.NoError(t, json.Unmarshal(data, &has))
			require.True(t, has)

			data, err = c.Call(ctx, MsgGetQuota, nil, "")
			require.NoError(t, err)
			var q engine.QuotaInfo
			require.NoError(t, json.Unmarshal(data, &q))
			require.Greater(t, q.Quota, int64(0))
		}()
	}
	wg.Wait()
}

func TestCall_RemapsEngineErrors(t *testing.T) {
	ctx := context.Background()
	c, err := NewClient(tempEngineFactory(t), 0, logging.NewDefault())
	require.NoError(t, err)
	defer c.Close()

	bad := savedCalendar()
	bad.Days[0].Day = 9
	_, err = c.Call(ctx, MsgSave, bad, "")
	require.ErrorIs(t, err, common.ErrMalformedRecord,
		"sentinels must survive the string crossing")

	_, err = c.Call(ctx, MsgGetMediaFile, nil, "media/day_9_calendar.json")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCall_TimesOutWithoutResponse(t *testing.T) {
	// A handle with no serve goroutine behind it: requests are accepted into
	// the buffer and never answered.
	c := &Client{
		timeout: 50 * time.Millisecond,
		log:     logging.NewDefault(),
		pending: make(map[string]chan Response),
		h:       newHandle(),
	}
	c.newEngine = func() (*engine.Engine, error) { return nil, nil }

	start := time.Now()
	_, err := c.Call(context.Background(), MsgHasData, nil, "")
	require.ErrorIs(t, err, common.ErrTimeout)
	require.Less(t, time.Since(start), time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Empty(t, c.pending, "timed-out call must unregister itself")
}

func TestCall_TimeoutDoesNotBlockLaterCalls(t *testing.T) {
	// A hand-rolled worker loop that swallows one request type, simulating an
	// operation that never finishes, while answering everything else.
	h := newHandle()
	go func() {
		for {
			select {
			case req := <-h.requests:
				if req.Type == MsgClear {
					continue
				}
				h.responses <- Response{ID: req.ID, Success: true, Data: []byte("true")}
			case <-h.done:
				close(h.responses)
				return
			}
		}
	}()

	c := &Client{
		timeout: 50 * time.Millisecond,
		log:     logging.NewDefault(),
		pending: make(map[string]chan Response),
		h:       h,
	}
	go c.receive(h)

	_, err := c.Call(context.Background(), MsgClear, nil, "")
	require.ErrorIs(t, err, common.ErrTimeout)

	data, err := c.Call(context.Background(), MsgHasData, nil, "")
	require.NoError(t, err, "a timed-out call must not affect unrelated later calls")
	require.Equal(t, "true", string(data))

	require.NoError(t, c.Close())
}

func TestClose_RejectsPendingWithSentinel(t *testing.T) {
	// Nothing serves this handle, so the call stays pending until Close.
	c := &Client{
		timeout: time.Minute,
		log:     logging.NewDefault(),
		pending: make(map[string]chan Response),
		h:       newHandle(),
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), MsgHasData, nil, "")
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.pending) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	require.ErrorIs(t, <-errCh, common.ErrWorkerClosed)
}

func TestCall_ContextCancellation(t *testing.T) {
	c := &Client{
		timeout: time.Minute,
		log:     logging.NewDefault(),
		pending: make(map[string]chan Response),
		h:       newHandle(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Call(ctx, MsgHasData, nil, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSettle_DropsLateResponse(t *testing.T) {
	c := &Client{
		log:     logging.NewDefault(),
		pending: make(map[string]chan Response),
	}

	// Must neither block nor panic when nothing is waiting for the ID.
	c.settle(Response{ID: "msg_99", Success: true})

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Empty(t, c.pending)
}

func TestCall_WorkerCrashRejectsAndReinitializes(t *testing.T) {
	ctx := context.Background()

	// First initialization hands out a nil engine, which panics the worker on
	// first use. Subsequent initializations return a working engine.
	dir := t.TempDir()
	var mu sync.Mutex
	inits := 0
	factory := func() (*engine.Engine, error) {
		mu.Lock()
		defer mu.Unlock()
		inits++
		if inits == 1 {
			return nil, nil
		}
		return engine.New(dir, logging.NewDefault())
	}

	c, err := NewClient(factory, time.Second, logging.NewDefault())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Call(ctx, MsgHasData, nil, "")
	require.ErrorIs(t, err, common.ErrWorkerFailed)

	// The next call restarts the worker with a fresh engine.
	data, err := c.Call(ctx, MsgHasData, nil, "")
	require.NoError(t, err)
	var has bool
	require.NoError(t, json.Unmarshal(data, &has))
	require.False(t, has)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, inits)
}

func TestClose(t *testing.T) {
	c, err := NewClient(tempEngineFactory(t), 0, logging.NewDefault())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), MsgHasData, nil, "")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "double close is harmless")

	_, err = c.Call(context.Background(), MsgHasData, nil, "")
	require.ErrorIs(t, err, common.ErrWorkerClosed)
}

func TestRemapError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{common.ErrQuotaExceeded.Error() + ": calendar size (3000.00MB) exceeds storage limit of 2048MB", common.ErrQuotaExceeded},
		{common.ErrMalformedRecord.Error(), common.ErrMalformedRecord},
		{common.ErrorNotFound.Error() + ": media/day_9_calendar.json", common.ErrorNotFound},
		{common.ErrWorkerFailed.Error(), common.ErrWorkerFailed},
		{common.ErrWorkerClosed.Error(), common.ErrWorkerClosed},
	}
	for _, tc := range tests {
		require.ErrorIs(t, remapError(tc.msg), tc.want, tc.msg)
	}

	err := remapError("something else entirely")
	require.Error(t, err)
	require.Contains(t, err.Error(), "something else entirely")
}
