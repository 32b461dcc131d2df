package server

import (
	"github.com/labstack/echo/v4"

	mid "github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo, app *mid.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", mid.AppContextMiddleware(app))

	// Document routes
	apiRoutes.GET("/documents", routes.ListDocumentsHandler)
	apiRoutes.POST("/documents", routes.UploadDocumentHandler)
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler)
	apiRoutes.GET("/documents/:id/status", routes.GetDocumentStatusHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)

	// Retrieval routes
	apiRoutes.POST("/query", routes.QueryHandler)
}
