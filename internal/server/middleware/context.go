package middleware

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/pkg/ai"
	"github.com/docsage/backend/pkg/retrieve"
	"github.com/docsage/backend/pkg/store"
)

// App bundles the shared dependencies every request handler needs.
type App struct {
	DBConn    *pgxpool.Pool
	Queue     *amqp091.Channel
	S3        *s3.Client
	AIClient  ai.Client
	Tracker   *progress.Tracker
	Retriever *retrieve.Retriever
	Graph     store.GraphStore
}

// AppContext wraps the echo context with the app dependencies and the
// requesting tenant.
type AppContext struct {
	echo.Context
	App     *App
	OwnerID string
}

const ownerHeader = "X-Owner-ID"

// AppContextMiddleware attaches the app dependencies to every request and
// resolves the tenant from the X-Owner-ID header. Requests without an
// owner are rejected; tenant isolation starts here.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ownerID := c.Request().Header.Get(ownerHeader)
			if ownerID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{
					"message": "Missing " + ownerHeader + " header",
				})
			}
			return next(&AppContext{
				Context: c,
				App:     app,
				OwnerID: ownerID,
			})
		}
	}
}
