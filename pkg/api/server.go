package api

import (
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"k8s.io/klog/v2"

	"github.com/kubestellar/hub-console/pkg/addon"
	"github.com/kubestellar/hub-console/pkg/api/handlers"
	"github.com/kubestellar/hub-console/pkg/cluster"
	"github.com/kubestellar/hub-console/pkg/config"
	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/metrics"
)

// Server represents the API server
type Server struct {
	app    *fiber.App
	config config.Config
	hub    *handlers.Hub
	client *k8s.HubClient
}

// NewServer creates a new API server backed by the hub cluster named in cfg
func NewServer(cfg config.Config) (*Server, error) {
	client, err := k8s.NewHubClient(cfg.Kubeconfig, cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub client: %w", err)
	}
	if err := client.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	klog.Info("Hub client initialized")

	s := newServer(cfg, client, client)
	s.client = client

	client.SetOnReload(func() {
		s.hub.BroadcastAll(handlers.Message{
			Type: handlers.EventKubeconfigChanged,
			Data: map[string]string{"message": "Kubeconfig updated"},
		})
		klog.Info("Broadcasted kubeconfig change to all clients")
	})
	if err := client.StartWatching(); err != nil {
		klog.Warningf("Failed to start kubeconfig watcher: %v", err)
	}
	return s, nil
}

// newServer wires the routes over conn, resolving create endpoints with resolver.
func newServer(cfg config.Config, conn k8s.Connector, resolver k8s.EndpointResolver) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	hub := handlers.NewHub()
	go hub.Run()

	s := &Server{
		app:    app,
		config: cfg,
		hub:    hub,
	}

	model := cluster.NewModel(conn,
		cluster.WithEndpointResolver(resolver),
		cluster.WithClusterNamespaces(cfg.ClusterNamespaces...),
		cluster.WithImportPolling(cfg.ImportPollInterval, cfg.ImportPollAttempts),
	)

	s.setupMiddleware()
	s.setupRoutes(model, addon.NewResolver(conn))
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
	}))

	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.FrontendURL,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: true,
	}))
}

func (s *Server) setupRoutes(model handlers.ClusterModel, addons handlers.AddonSource) {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := s.app.Group("/api")

	clusters := handlers.NewClusterHandlers(model, s.hub)
	api.Get("/clusters", clusters.ListClusters)
	api.Post("/clusters", clusters.CreateCluster)
	api.Get("/clusters/:name", clusters.GetCluster)
	api.Get("/clusters/:name/nodes", clusters.GetNodes)
	api.Delete("/clusters/:namespace/:name", clusters.DetachCluster)
	api.Get("/overview/clusters", clusters.ListOverview)
	api.Get("/clusterimagesets", clusters.ListImageSets)

	api.Get("/clusters/:namespace/addons", handlers.NewAddonHandlers(addons).ListAddons)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.hub.HandleConnection))
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	klog.Infof("Starting server on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.hub.Close()
	if s.client != nil {
		s.client.StopWatching()
	}
	return s.app.Shutdown()
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
