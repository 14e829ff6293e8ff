package addon

import (
	"github.com/kubestellar/hub-console/pkg/models"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ResolveStatus picks the condition that decides an add-on's status, in
// order: Degraded=True, Progressing=True, Available=True, no condition True
// (reported as Progressing), Available=False (reported as Unavailable).
// Anything else is Unknown.
func ResolveStatus(conditions []metav1.Condition) models.AddonStatus {
	for _, want := range []string{models.AddonStatusDegraded, models.AddonStatusProgressing, models.AddonStatusAvailable} {
		if c := find(conditions, want, metav1.ConditionTrue); c != nil {
			return statusOf(*c)
		}
	}
	if noneTrue(conditions) {
		return models.AddonStatus{Type: models.AddonStatusProgressing}
	}
	if c := find(conditions, models.AddonStatusAvailable, metav1.ConditionFalse); c != nil {
		s := statusOf(*c)
		s.Type = models.AddonStatusUnavailable
		return s
	}
	return models.AddonStatus{Type: models.AddonStatusUnknown}
}

func find(conditions []metav1.Condition, conditionType string, status metav1.ConditionStatus) *metav1.Condition {
	for i := range conditions {
		if conditions[i].Type == conditionType && conditions[i].Status == status {
			return &conditions[i]
		}
	}
	return nil
}

// noneTrue is also true for an empty list: an add-on that reports nothing
// yet is still coming up.
func noneTrue(conditions []metav1.Condition) bool {
	for _, c := range conditions {
		if c.Status == metav1.ConditionTrue {
			return false
		}
	}
	return true
}

func statusOf(c metav1.Condition) models.AddonStatus {
	return models.AddonStatus{
		Type:    c.Type,
		Status:  c.Status,
		Reason:  c.Reason,
		Message: c.Message,
	}
}
