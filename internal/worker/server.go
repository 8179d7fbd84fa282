package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"adventkeeper/internal/calendar"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/logging"
)

// handle is the channel pair connecting a client to one running worker.
// crashed is closed when the worker dies abnormally; requests stop being
// consumed at that point.
type handle struct {
	requests  chan Request
	responses chan Response
	crashed   chan struct{}
	done      chan struct{}
}

func newHandle() *handle {
	return &handle{
		requests:  make(chan Request, 16),
		responses: make(chan Response, 16),
		crashed:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// serve is the worker loop. It owns the engine exclusively: all file
// operations happen here, off the caller's goroutine. A panic in a handler is
// an execution-context fatal error: the crashed channel is closed and the
// loop exits. Normal operation failures travel back as error responses.
func serve(eng *engine.Engine, h *handle, log logging.Logger) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "worker crashed", "panic", r)
			close(h.crashed)
		}
	}()

	for {
		select {
		case req := <-h.requests:
			h.responses <- dispatch(ctx, eng, req)
		case <-h.done:
			close(h.responses)
			return
		}
	}
}

// dispatch executes one request against the engine and wraps the result in a
// response envelope.
func dispatch(ctx context.Context, eng *engine.Engine, req Request) Response {
	data, err := execute(ctx, eng, req)
	if err != nil {
		return Response{ID: req.ID, Success: false, Error: err.Error()}
	}
	return Response{ID: req.ID, Success: true, Data: data}
}

func execute(ctx context.Context, eng *engine.Engine, req Request) (json.RawMessage, error) {
	switch req.Type {
	case MsgSave:
		var cal calendar.Calendar
		if err := json.Unmarshal(req.Payload, &cal); err != nil {
			return nil, fmt.Errorf("decode save payload: %w", err)
		}
		if err := eng.Save(ctx, &cal); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]bool{"success": true})

	case MsgLoad:
		cal, err := eng.Load(ctx)
		if err != nil {
			return nil, err
		}
		if cal == nil {
			return nil, nil
		}
		return json.Marshal(cal)

	case MsgClear:
		if err := eng.Clear(ctx); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]bool{"success": true})

	case MsgHasData:
		has, err := eng.HasData(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(has)

	case MsgGetQuota:
		q, err := eng.Quota(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(q)

	case MsgCanSave:
		var cal calendar.Calendar
		if err := json.Unmarshal(req.Payload, &cal); err != nil {
			return nil, fmt.Errorf("decode canSave payload: %w", err)
		}
		check, err := eng.CanSave(ctx, &cal)
		if err != nil {
			return nil, err
		}
		return json.Marshal(check)

	case MsgStoreMedia:
		var m engine.MediaRecord
		if err := json.Unmarshal(req.Payload, &m); err != nil {
			return nil, fmt.Errorf("decode storeMedia payload: %w", err)
		}
		if err := eng.StoreMedia(ctx, &m); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]bool{"success": true})

	case MsgGetMediaFile:
		f, err := eng.GetMediaFile(ctx, req.FileID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(f)

	default:
		return nil, fmt.Errorf("unknown message type: %s", req.Type)
	}
}
