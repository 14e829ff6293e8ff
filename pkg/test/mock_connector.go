package test

import (
	"context"
	"encoding/json"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/stretchr/testify/mock"
	"k8s.io/apimachinery/pkg/types"
)

// MockConnector is a mock implementation of k8s.Connector
type MockConnector struct {
	mock.Mock
}

func responseArg(args mock.Arguments) (*k8s.Response, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*k8s.Response), args.Error(1)
}

func (m *MockConnector) Get(ctx context.Context, path string) (*k8s.Response, error) {
	return responseArg(m.Called(ctx, path))
}

func (m *MockConnector) Post(ctx context.Context, path string, body any) (*k8s.Response, error) {
	return responseArg(m.Called(ctx, path, body))
}

func (m *MockConnector) Put(ctx context.Context, path string, body any) (*k8s.Response, error) {
	return responseArg(m.Called(ctx, path, body))
}

func (m *MockConnector) Patch(ctx context.Context, path string, patchType types.PatchType, body any) (*k8s.Response, error) {
	return responseArg(m.Called(ctx, path, patchType, body))
}

func (m *MockConnector) Delete(ctx context.Context, path string) (*k8s.Response, error) {
	return responseArg(m.Called(ctx, path))
}

// GetResources fans out over Get so expectations are set per namespace path
func (m *MockConnector) GetResources(ctx context.Context, build k8s.PathBuilder, namespaces []string) ([]json.RawMessage, error) {
	return k8s.ListAcrossNamespaces(ctx, m, build, namespaces)
}

// JSON builds a response from an object, panicking on marshal failure
func JSON(code int, obj any) *k8s.Response {
	resp, err := k8s.NewResponse(code, obj)
	if err != nil {
		panic(err)
	}
	return resp
}

// List builds a 200 list response
func List(items ...any) *k8s.Response {
	if items == nil {
		items = []any{}
	}
	return JSON(200, map[string]any{"items": items})
}

// NotFound builds a 404 Status response
func NotFound(message string) *k8s.Response {
	return k8s.StatusResponse(404, "NotFound", message)
}
