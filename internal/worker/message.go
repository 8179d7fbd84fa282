// Package worker implements the message-passing transport between the
// foreground store facade and the background storage engine. Every request
// carries a correlation ID; responses are matched back to their pending call,
// late responses are dropped, and calls without a response time out.
package worker

import "encoding/json"

// MsgType enumerates the operations the worker understands. Adding an
// operation means adding one variant here plus one handler case.
type MsgType string

const (
	MsgSave         MsgType = "save"
	MsgLoad         MsgType = "load"
	MsgClear        MsgType = "clear"
	MsgHasData      MsgType = "hasData"
	MsgGetQuota     MsgType = "getQuota"
	MsgCanSave      MsgType = "canSave"
	MsgStoreMedia   MsgType = "storeMedia"
	MsgGetMediaFile MsgType = "getMediaFile"
)

// Request is the typed envelope sent to the worker.
type Request struct {
	ID      string          `json:"id"`
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	FileID  string          `json:"fileId,omitempty"`
}

// Response is the envelope sent back, matched to its Request by ID.
type Response struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}
