package k8s

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Response is the result of a request that reached the hub API server.
// Upstream failures (4xx/5xx, Status objects) are carried here rather than
// returned as Go errors, so callers can classify them.
type Response struct {
	code  int
	body  []byte
	probe responseProbe
}

// responseProbe holds the top-level fields needed to classify a body without
// knowing its kind.
type responseProbe struct {
	Kind    string          `json:"kind"`
	Code    int             `json:"code"`
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Items   json.RawMessage `json:"items"`
}

// NewRawResponse wraps an HTTP status code and body.
func NewRawResponse(code int, body []byte) *Response {
	r := &Response{code: code, body: body}
	if len(bytes.TrimSpace(body)) > 0 {
		_ = json.Unmarshal(body, &r.probe)
	}
	return r
}

// NewResponse marshals obj as the response body.
func NewResponse(code int, obj any) (*Response, error) {
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response body: %w", err)
	}
	return NewRawResponse(code, body), nil
}

// StatusResponse builds a Kubernetes-style Status response.
func StatusResponse(code int, reason metav1.StatusReason, message string) *Response {
	status := metav1.Status{
		TypeMeta: metav1.TypeMeta{Kind: "Status", APIVersion: "v1"},
		Status:   metav1.StatusFailure,
		Code:     int32(code),
		Reason:   reason,
		Message:  message,
	}
	if code < http.StatusBadRequest {
		status.Status = metav1.StatusSuccess
	}
	body, _ := json.Marshal(status)
	return NewRawResponse(code, body)
}

// NoContent is the conventional success result of workflows that return no body.
func NoContent() *Response {
	return NewRawResponse(http.StatusNoContent, nil)
}

// StatusCode returns the HTTP status code, falling back to the code carried
// inside a Status body.
func (r *Response) StatusCode() int {
	if r.code != 0 {
		return r.code
	}
	return r.probe.Code
}

// Body returns the raw response body.
func (r *Response) Body() []byte {
	return r.body
}

// Kind returns the kind of the returned object, if any.
func (r *Response) Kind() string {
	return r.probe.Kind
}

// Message returns the top-level message of a Status body.
func (r *Response) Message() string {
	return r.probe.Message
}

// StatusString returns the Status "status" field (Success/Failure) when the
// body is a Status object; resource bodies carry an object there instead.
func (r *Response) StatusString() string {
	var s string
	if len(r.probe.Status) > 0 && r.probe.Status[0] == '"' {
		_ = json.Unmarshal(r.probe.Status, &s)
	}
	return s
}

// HasError reports whether the response is an upstream error: a code >= 400,
// a Failure status, or a message.
func (r *Response) HasError() bool {
	return r.StatusCode() >= http.StatusBadRequest ||
		r.StatusString() == metav1.StatusFailure ||
		r.probe.Message != ""
}

// Status decodes the body as a metav1.Status. It returns nil for other kinds.
func (r *Response) Status() *metav1.Status {
	if r.probe.Kind != "Status" {
		return nil
	}
	var status metav1.Status
	if err := json.Unmarshal(r.body, &status); err != nil {
		return nil
	}
	return &status
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(r.body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.body, v)
}

// Items returns the raw items of a list body. The boolean is false when the
// body carries no item collection at all, which is distinct from an empty list.
func (r *Response) Items() ([]json.RawMessage, bool) {
	if len(r.probe.Items) == 0 || string(r.probe.Items) == "null" {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(r.probe.Items, &items); err != nil {
		return nil, false
	}
	return items, true
}

// DecodeItems unmarshals raw list items into typed values.
func DecodeItems[T any](raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("failed to decode item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
