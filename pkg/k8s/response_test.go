package k8s

import (
	"encoding/json"
	"net/http"
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestResponse_HasError(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want bool
	}{
		{"ok object", 200, `{"kind":"ManagedCluster","status":{"conditions":[]}}`, false},
		{"ok list", 200, `{"items":[]}`, false},
		{"http error", 500, ``, true},
		{"failure status", 0, `{"kind":"Status","status":"Failure"}`, true},
		{"success status", 200, `{"kind":"Status","status":"Success"}`, false},
		{"message only", 200, `{"message":"something happened"}`, true},
		{"code in body", 0, `{"kind":"Status","code":404}`, true},
		{"no content", 204, ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRawResponse(tt.code, []byte(tt.body))
			if got := r.HasError(); got != tt.want {
				t.Errorf("HasError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponse_StatusStringIgnoresObjectStatus(t *testing.T) {
	r := NewRawResponse(200, []byte(`{"kind":"Project","status":{"phase":"Terminating"}}`))
	if s := r.StatusString(); s != "" {
		t.Errorf("StatusString() = %q, want empty for object status", s)
	}
	if r.Status() != nil {
		t.Error("Status() should be nil for non-Status kinds")
	}
}

func TestResponse_Items(t *testing.T) {
	if _, ok := NewRawResponse(200, []byte(`{"kind":"ManagedCluster"}`)).Items(); ok {
		t.Error("single object should carry no items")
	}
	if _, ok := NewRawResponse(200, []byte(`{"items":null}`)).Items(); ok {
		t.Error("null items should be treated as absent")
	}
	items, ok := NewRawResponse(200, []byte(`{"items":[]}`)).Items()
	if !ok || len(items) != 0 {
		t.Errorf("empty list: items=%v ok=%v", items, ok)
	}
}

func TestStatusResponse(t *testing.T) {
	r := StatusResponse(http.StatusForbidden, metav1.StatusReasonForbidden, "denied")
	if !r.HasError() {
		t.Error("403 status should be an error")
	}
	status := r.Status()
	if status == nil {
		t.Fatal("Status() returned nil")
	}
	if status.Status != metav1.StatusFailure || status.Code != 403 || status.Message != "denied" {
		t.Errorf("unexpected status %+v", status)
	}

	ok := StatusResponse(http.StatusOK, "", "")
	if ok.HasError() || ok.StatusString() != metav1.StatusSuccess {
		t.Errorf("success status: %s", ok.Body())
	}
}

func TestNoContent(t *testing.T) {
	r := NoContent()
	if r.StatusCode() != http.StatusNoContent || r.HasError() {
		t.Errorf("NoContent() = %d, hasError=%v", r.StatusCode(), r.HasError())
	}
}

func TestDecodeItems(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"metadata":{"name":"j1"},"status":{"active":1}}`),
		json.RawMessage(`{"metadata":{"name":"j2"},"status":{"failed":2}}`),
	}
	jobs, err := DecodeItems[batchv1.Job](raw)
	if err != nil {
		t.Fatalf("DecodeItems failed: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Status.Active != 1 || jobs[1].Status.Failed != 2 {
		t.Errorf("unexpected jobs %+v", jobs)
	}

	if _, err := DecodeItems[batchv1.Job]([]json.RawMessage{json.RawMessage(`[`)}); err == nil {
		t.Error("expected decode error")
	}
}
