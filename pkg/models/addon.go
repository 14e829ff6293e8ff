package models

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Addon status types
const (
	AddonStatusDegraded    = "Degraded"
	AddonStatusProgressing = "Progressing"
	AddonStatusAvailable   = "Available"
	AddonStatusUnavailable = "Unavailable"
	AddonStatusUnknown     = "Unknown"
	AddonStatusDisabled    = "Disabled"
)

// Addon is one add-on row of a cluster, enabled or not
type Addon struct {
	Metadata      metav1.ObjectMeta `json:"metadata"`
	Status        AddonStatus       `json:"status"`
	AddOnResource AddonResource     `json:"addOnResource"`
}

// AddonStatus is the condition that decided an add-on's status. Synthesized
// statuses carry only a type.
type AddonStatus struct {
	Type    string                 `json:"type"`
	Status  metav1.ConditionStatus `json:"status,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// AddonResource is the configuration resource of an add-on
type AddonResource struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Resource    string `json:"resource"`
	Description string `json:"description"`
}
