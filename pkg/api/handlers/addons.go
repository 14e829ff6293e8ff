package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/kubestellar/hub-console/pkg/models"
)

// AddonSource lists the add-ons of a cluster
type AddonSource interface {
	GetClusterAddons(ctx context.Context, namespace string) ([]models.Addon, error)
}

// AddonHandlers handles add-on API endpoints
type AddonHandlers struct {
	addons AddonSource
}

// NewAddonHandlers creates a new add-on handlers instance
func NewAddonHandlers(addons AddonSource) *AddonHandlers {
	return &AddonHandlers{addons: addons}
}

// ListAddons returns enabled and disabled add-ons of the cluster in namespace
// GET /api/clusters/:namespace/addons
func (h *AddonHandlers) ListAddons(c *fiber.Ctx) error {
	namespace := c.Params("namespace")
	if err := validateName(namespace); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	addons, err := h.addons.GetClusterAddons(c.UserContext(), namespace)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(addons)
}
