package cluster

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// latest returns the item with the greatest creation timestamp. Items created
// in the same second are ordered by name, greatest wins. It returns nil for
// an empty slice.
func latest[T any, PT interface {
	*T
	metav1.Object
}](items []T) PT {
	var best PT
	for i := range items {
		cur := PT(&items[i])
		if best == nil || newer(cur, best) {
			best = cur
		}
	}
	return best
}

func newer(a, b metav1.Object) bool {
	ta, tb := a.GetCreationTimestamp(), b.GetCreationTimestamp()
	if !ta.Equal(&tb) {
		return tb.Before(&ta)
	}
	return a.GetName() > b.GetName()
}
