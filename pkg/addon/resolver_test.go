package addon

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"github.com/kubestellar/hub-console/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func catalogEntry(name, crd, description string) models.ClusterManagementAddOn {
	return models.ClusterManagementAddOn{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: models.ClusterManagementAddOnSpec{
			AddOnMeta:          models.AddOnMeta{Description: description},
			AddOnConfiguration: models.ConfigCoordinates{CRDName: crd},
		},
	}
}

func instance(name string, conditions ...metav1.Condition) models.ManagedClusterAddOn {
	return models.ManagedClusterAddOn{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "c1"},
		Status: models.ManagedClusterAddOnStatus{
			Conditions: conditions,
			RelatedObjects: []models.ObjectReference{{
				Group:    "agent.open-cluster-management.io",
				Resource: "klusterletaddonconfigs",
				Name:     "c1",
			}},
			AddOnMeta: models.AddOnMeta{Description: name + " description"},
		},
	}
}

func TestGetClusterAddons(t *testing.T) {
	conn := &test.MockConnector{}
	conn.On("Get", mock.Anything, k8s.ClusterManagementAddonsPath).Return(test.List(
		catalogEntry("application-manager", "klusterletaddonconfigs.agent.open-cluster-management.io", "Processes events"),
		catalogEntry("search-collector", "klusterletaddonconfigs.agent.open-cluster-management.io", "Collects cluster data"),
	), nil)
	conn.On("Get", mock.Anything, k8s.ManagedClusterAddonsPath("c1")).Return(test.List(
		instance("application-manager", cond("Available", metav1.ConditionTrue)),
	), nil)

	addons, err := NewResolver(conn).GetClusterAddons(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, addons, 2)

	enabled := addons[0]
	assert.Equal(t, "application-manager", enabled.Metadata.Name)
	assert.Equal(t, models.AddonStatusAvailable, enabled.Status.Type)
	assert.Equal(t, models.AddonResource{
		Name:        "c1",
		Group:       "agent.open-cluster-management.io",
		Resource:    "klusterletaddonconfigs",
		Description: "application-manager description",
	}, enabled.AddOnResource)

	disabled := addons[1]
	assert.Equal(t, "search-collector", disabled.Metadata.Name)
	assert.Equal(t, "c1", disabled.Metadata.Namespace)
	assert.Equal(t, models.AddonStatus{Type: models.AddonStatusDisabled}, disabled.Status)
	assert.Equal(t, models.AddonResource{
		Group:       "agent.open-cluster-management.io",
		Resource:    "klusterletaddonconfigs",
		Description: "Collects cluster data",
	}, disabled.AddOnResource)

	conn.AssertExpectations(t)
}

func TestGetClusterAddonsCatalogForbidden(t *testing.T) {
	conn := &test.MockConnector{}
	conn.On("Get", mock.Anything, k8s.ClusterManagementAddonsPath).
		Return(k8s.StatusResponse(http.StatusForbidden, metav1.StatusReasonForbidden, "forbidden"), nil)
	conn.On("Get", mock.Anything, k8s.ManagedClusterAddonsPath("c1")).
		Return(test.List(instance("work-manager")), nil)

	addons, err := NewResolver(conn).GetClusterAddons(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, addons, 1)
	assert.Equal(t, models.AddonStatusProgressing, addons[0].Status.Type)
}

func TestGetClusterAddonsErrors(t *testing.T) {
	notFound := &metav1.Status{
		TypeMeta: metav1.TypeMeta{Kind: "Status", APIVersion: "v1"},
		Status:   metav1.StatusFailure,
		Code:     http.StatusNotFound,
		Reason:   metav1.StatusReasonNotFound,
		Message:  "the server could not find the requested resource",
		Details:  &metav1.StatusDetails{Kind: "clustermanagementaddons"},
	}

	t.Run("catalog", func(t *testing.T) {
		conn := &test.MockConnector{}
		conn.On("Get", mock.Anything, k8s.ClusterManagementAddonsPath).Return(test.JSON(http.StatusNotFound, notFound), nil)
		conn.On("Get", mock.Anything, k8s.ManagedClusterAddonsPath("c1")).Return(test.List(), nil)

		_, err := NewResolver(conn).GetClusterAddons(context.Background(), "c1")
		require.Error(t, err)
		assert.Equal(t, "Error fetching clustermanagementaddons: 404 - the server could not find the requested resource", err.Error())
	})

	t.Run("instances forbidden", func(t *testing.T) {
		conn := &test.MockConnector{}
		conn.On("Get", mock.Anything, k8s.ClusterManagementAddonsPath).Return(test.List(), nil)
		conn.On("Get", mock.Anything, k8s.ManagedClusterAddonsPath("c1")).
			Return(k8s.StatusResponse(http.StatusForbidden, metav1.StatusReasonForbidden, "managedclusteraddons is forbidden"), nil)

		_, err := NewResolver(conn).GetClusterAddons(context.Background(), "c1")
		var apiErr *k8s.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "ManagedClusterAddOn", apiErr.Kind)
		assert.Equal(t, http.StatusForbidden, apiErr.Code)
	})

	t.Run("transport", func(t *testing.T) {
		boom := errors.New("dial tcp: connection refused")
		conn := &test.MockConnector{}
		conn.On("Get", mock.Anything, k8s.ClusterManagementAddonsPath).Return(nil, boom)
		conn.On("Get", mock.Anything, k8s.ManagedClusterAddonsPath("c1")).Return(test.List(), nil)

		_, err := NewResolver(conn).GetClusterAddons(context.Background(), "c1")
		assert.ErrorIs(t, err, boom)
	})
}

func TestDisabledAddonWithoutGroup(t *testing.T) {
	a := disabledAddon(catalogEntry("plain", "configs", ""), "c1")
	assert.Equal(t, "configs", a.AddOnResource.Resource)
	assert.Empty(t, a.AddOnResource.Group)
}
