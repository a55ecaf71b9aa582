package host

import (
	"encoding/json"
	"fmt"
)

// InvokeEvent is the socket.io event content emits to run a command.
const InvokeEvent = "invoke"

// Request is the payload of an invoke event.
type Request struct {
	ID      string         `json:"id"`
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
}

// Response is sent back in the invoke acknowledgement.
type Response struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ParseRequest converts a decoded socket.io argument into a Request. The
// argument is whatever the transport produced for the JSON object content
// sent, usually map[string]any.
func ParseRequest(v any) (Request, error) {
	var req Request
	if err := remarshal(v, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if req.Command == "" {
		return Request{}, fmt.Errorf("%w: command is required", ErrBadRequest)
	}
	return req, nil
}

// ParseResponse converts a decoded acknowledgement argument into a Response.
func ParseResponse(v any) (Response, error) {
	var resp Response
	if err := remarshal(v, &resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

// toWire turns a Response into the plain map the transport encodes.
func (r Response) toWire() map[string]any {
	out := map[string]any{"id": r.ID, "ok": r.OK}
	if r.OK {
		out["result"] = r.Result
	} else {
		out["error"] = r.Error
	}
	return out
}

func remarshal(in, out any) error {
	if in == nil {
		return fmt.Errorf("empty payload")
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
