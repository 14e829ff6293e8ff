package cli

import (
	"errors"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// readManifests decodes every YAML or JSON document in r. Empty documents
// are skipped.
func readManifests(r io.Reader) ([]*unstructured.Unstructured, error) {
	decoder := utilyaml.NewYAMLOrJSONDecoder(r, 4096)
	var manifests []*unstructured.Unstructured
	for {
		var obj map[string]any
		if err := decoder.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode manifest %d: %w", len(manifests)+1, err)
		}
		if len(obj) == 0 {
			continue
		}
		manifests = append(manifests, &unstructured.Unstructured{Object: obj})
	}
	if len(manifests) == 0 {
		return nil, errors.New("no manifests found")
	}
	return manifests, nil
}
