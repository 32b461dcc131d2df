package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/retrieve"
)

// QueryHandler runs hybrid retrieval for the requesting owner and returns
// the ranked chunks with their graph context.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Query       string   `json:"query" validate:"required"`
		MaxResults  int      `json:"max_results" validate:"omitempty,min=1,max=50"`
		Expand      *bool    `json:"expand"`
		DocumentIDs []string `json:"document_ids" validate:"omitempty,max=50"`
	}

	type queryResponse struct {
		Message string               `json:"message"`
		Chunks  []rag.RetrievedChunk `json:"chunks"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	expand := true
	if data.Expand != nil {
		expand = *data.Expand
	}

	ac := c.(*middleware.AppContext)
	chunks, err := ac.App.Retriever.Retrieve(c.Request().Context(), retrieve.Request{
		OwnerID:     ac.OwnerID,
		Query:       data.Query,
		MaxResults:  data.MaxResults,
		Expand:      expand,
		DocumentIDs: data.DocumentIDs,
	})
	if err != nil {
		logger.Error("Retrieval failed", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Retrieval failed",
		})
	}
	if chunks == nil {
		chunks = []rag.RetrievedChunk{}
	}

	return c.JSON(http.StatusOK, queryResponse{
		Message: "OK",
		Chunks:  chunks,
	})
}
