package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/siimut/drive/internal/app"
	"github.com/siimut/drive/internal/handlers"
	"github.com/siimut/drive/internal/middleware"
	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/internal/storage"
)

// NewRouter builds the Gin engine, wires middleware and registers the drive routes.
func NewRouter(db *gorm.DB, blobs storage.BlobStore, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
		r.GET("/api/health", handlers.Health(db))
	}

	api := r.Group("/api/drive")

	if err := registerDriveRoutes(api, db, blobs); err != nil {
		return nil, err
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerDriveRoutes(api *gin.RouterGroup, db *gorm.DB, blobs storage.BlobStore) error {
	nodeStore, err := services.NewNodeStore(db)
	if err != nil {
		return err
	}
	drive, err := services.NewDriveService(db, nodeStore, blobs)
	if err != nil {
		return err
	}
	queries, err := services.NewNodeQueryService(db)
	if err != nil {
		return err
	}
	activities, err := services.NewActivityService(db)
	if err != nil {
		return err
	}
	favorites, err := services.NewFavoriteService(db)
	if err != nil {
		return err
	}
	tags, err := services.NewTagService(db)
	if err != nil {
		return err
	}
	storageSvc, err := services.NewStorageService(db)
	if err != nil {
		return err
	}

	nodeHandler := handlers.NewNodeHandler(drive, queries)
	favoriteHandler := handlers.NewFavoriteHandler(favorites, queries)
	tagHandler := handlers.NewTagHandler(tags)
	activityHandler := handlers.NewActivityHandler(activities)
	storageHandler := handlers.NewStorageHandler(storageSvc)

	api.POST("/folders", nodeHandler.CreateFolder)
	api.POST("/files", nodeHandler.Upload)

	nodes := api.Group("/nodes")
	{
		nodes.GET("", nodeHandler.Roots)
		nodes.GET("/:id", nodeHandler.Get)
		nodes.GET("/:id/children", nodeHandler.Children)
		nodes.GET("/:id/ancestors", nodeHandler.Ancestors)
		nodes.GET("/:id/descendants", nodeHandler.Descendants)
		nodes.GET("/:id/tree", nodeHandler.Tree)
		nodes.GET("/:id/download", nodeHandler.Download)
		nodes.GET("/:id/activities", activityHandler.ListForNode)

		nodes.PATCH("/:id/rename", nodeHandler.Rename)
		nodes.POST("/:id/move", nodeHandler.Move)
		nodes.POST("/:id/copy", nodeHandler.Copy)
		nodes.POST("/:id/trash", nodeHandler.Trash)
		nodes.POST("/:id/restore", nodeHandler.Restore)
		nodes.DELETE("/:id", nodeHandler.Delete)

		nodes.POST("/:id/favorite", favoriteHandler.Toggle)
		nodes.POST("/:id/tags/:tagId", tagHandler.Attach)
		nodes.DELETE("/:id/tags/:tagId", tagHandler.Detach)
	}

	api.GET("/search", nodeHandler.Search)
	api.GET("/trash", nodeHandler.Trashed)
	api.GET("/recent", nodeHandler.Recent)
	api.GET("/favorites", favoriteHandler.List)

	tagRoutes := api.Group("/tags")
	{
		tagRoutes.GET("", tagHandler.List)
		tagRoutes.POST("", tagHandler.Create)
		tagRoutes.DELETE("/:id", tagHandler.Delete)
	}

	api.GET("/activities", activityHandler.List)
	api.GET("/storage/stats", storageHandler.Stats)
	api.GET("/storage/usage", storageHandler.Usage)

	return nil
}
