package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/klog/v2"
)

// ClusterModel is the cluster lifecycle surface served over HTTP
type ClusterModel interface {
	GetClusters(ctx context.Context, name string) ([]models.ClusterView, error)
	GetAllClusters(ctx context.Context, name string) ([]models.ClusterOverview, error)
	GetSingleCluster(ctx context.Context, name string) ([]models.ClusterView, error)
	GetNodeList(ctx context.Context, name string) ([]models.ClusterNode, error)
	GetClusterImageSets(ctx context.Context) ([]models.ImageSet, error)
	CreateCluster(ctx context.Context, manifests []*unstructured.Unstructured) (*models.CreateResult, error)
	DetachCluster(ctx context.Context, namespace, cluster string, destroy bool) (*k8s.Response, error)
}

// ClusterHandlers handles cluster API endpoints
type ClusterHandlers struct {
	model ClusterModel
	hub   *Hub
}

// NewClusterHandlers creates a new cluster handlers instance
func NewClusterHandlers(model ClusterModel, hub *Hub) *ClusterHandlers {
	return &ClusterHandlers{
		model: model,
		hub:   hub,
	}
}

// ListClusters returns the detailed view of all clusters
// GET /api/clusters[?name=]
func (h *ClusterHandlers) ListClusters(c *fiber.Ctx) error {
	clusters, err := h.model.GetClusters(c.UserContext(), c.Query("name"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(clusters)
}

// ListOverview returns the overview rows of all clusters
// GET /api/overview/clusters[?name=]
func (h *ClusterHandlers) ListOverview(c *fiber.Ctx) error {
	rows, err := h.model.GetAllClusters(c.UserContext(), c.Query("name"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(rows)
}

// GetCluster returns one cluster read directly, or an empty list
// GET /api/clusters/:name
func (h *ClusterHandlers) GetCluster(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := validateName(name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	clusters, err := h.model.GetSingleCluster(c.UserContext(), name)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(clusters)
}

// GetNodes returns the nodes of one cluster
// GET /api/clusters/:name/nodes
func (h *ClusterHandlers) GetNodes(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := validateName(name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	nodes, err := h.model.GetNodeList(c.UserContext(), name)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(nodes)
}

// ListImageSets returns the installable release images
// GET /api/clusterimagesets
func (h *ClusterHandlers) ListImageSets(c *fiber.Ctx) error {
	sets, err := h.model.GetClusterImageSets(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sets)
}

// CreateCluster creates the resources of a new or imported cluster. The
// body is a JSON array of manifests. A run that collected errors answers
// 422 with the same report.
// POST /api/clusters
func (h *ClusterHandlers) CreateCluster(c *fiber.Ctx) error {
	var objs []map[string]any
	if err := json.Unmarshal(c.Body(), &objs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body must be a JSON array of manifests"})
	}
	manifests := make([]*unstructured.Unstructured, 0, len(objs))
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		manifests = append(manifests, &unstructured.Unstructured{Object: obj})
	}

	result, err := h.model.CreateCluster(c.UserContext(), manifests)
	if err != nil {
		return errorResponse(c, err)
	}

	h.hub.BroadcastAll(Message{Type: EventClusterCreated, Data: result})
	if !result.Succeeded() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

// DetachCluster detaches a cluster and, with destroy=true, deletes its
// deployment. An upstream failure is relayed with its own status code.
// DELETE /api/clusters/:namespace/:name[?destroy=true]
func (h *ClusterHandlers) DetachCluster(c *fiber.Ctx) error {
	namespace, name := c.Params("namespace"), c.Params("name")
	for _, v := range []string{namespace, name} {
		if err := validateName(v); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	destroy := c.QueryBool("destroy")

	id := uuid.NewString()
	ctx := klog.NewContext(c.UserContext(), klog.FromContext(c.UserContext()).WithValues("operation", id))

	resp, err := h.model.DetachCluster(ctx, namespace, name, destroy)
	if err != nil {
		return errorResponse(c, err)
	}
	if resp.HasError() {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(resp.StatusCode()).Send(resp.Body())
	}

	h.hub.BroadcastAll(Message{Type: EventClusterDetached, Data: fiber.Map{
		"operationId": id,
		"namespace":   namespace,
		"name":        name,
		"destroy":     destroy,
	}})
	return c.SendStatus(fiber.StatusNoContent)
}

// errorResponse maps an aborted read to an HTTP error. Upstream errors keep
// their status code; transport failures are reported as a bad gateway.
func errorResponse(c *fiber.Ctx, err error) error {
	var apiErr *k8s.APIError
	if errors.As(err, &apiErr) && apiErr.Code >= fiber.StatusBadRequest {
		return c.Status(apiErr.Code).JSON(fiber.Map{"error": apiErr.Error()})
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
}

func validateName(name string) error {
	if msgs := validation.IsDNS1123Subdomain(name); len(msgs) > 0 {
		return errors.New("invalid name " + name + ": " + strings.Join(msgs, "; "))
	}
	return nil
}
