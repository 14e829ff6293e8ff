package models

import (
	corev1 "k8s.io/api/core/v1"
)

// ResultError is one failure collected by a write workflow
type ResultError struct {
	Message string `json:"message"`
}

// ResourceRef identifies a resource touched by a write workflow
type ResourceRef struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CreateResult is the unified report of a cluster create run.
// The run succeeded when Errors is empty.
type CreateResult struct {
	OperationID  string         `json:"operationId,omitempty"`
	Errors       []ResultError  `json:"errors"`
	Created      []ResourceRef  `json:"created"`
	Updated      []ResourceRef  `json:"updated"`
	ImportSecret *corev1.Secret `json:"importSecret,omitempty"`
}

// Succeeded reports whether the run collected no errors
func (r *CreateResult) Succeeded() bool {
	return len(r.Errors) == 0
}
