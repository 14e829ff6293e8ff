package k8s

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// APIError is an upstream error response on a read the caller cannot
// continue without.
type APIError struct {
	Kind    string
	Code    int
	Reason  metav1.StatusReason
	Message string
}

// NewAPIError builds an APIError from an error response. kind names what was
// being read when the Status does not say.
func NewAPIError(resp *Response, kind string) *APIError {
	e := &APIError{Kind: kind, Code: resp.StatusCode(), Message: resp.Message()}
	if status := resp.Status(); status != nil {
		e.Reason = status.Reason
		if status.Details != nil && status.Details.Kind != "" {
			e.Kind = status.Details.Kind
		}
	}
	if e.Message == "" {
		e.Message = string(resp.Body())
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Error fetching %s: %d - %s", e.Kind, e.Code, e.Message)
}
