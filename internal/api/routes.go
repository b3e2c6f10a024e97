package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tembea/server/internal/websocket"
	"github.com/tembea/server/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, places *usecase.PlaceService, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "tembea-server",
		})
	})

	// Place information
	e.POST("/api/place-info", func(c echo.Context) error {
		return placeInfo(c, places, logger)
	})

	// WebSocket endpoint for audio transcription sessions
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func placeInfo(c echo.Context, places *usecase.PlaceService, logger *zap.Logger) error {
	var req PlaceInfoRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind place info request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.Place == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Place name is required",
		})
	}

	information, err := places.Describe(c.Request().Context(), req.Place)
	if err != nil {
		logger.Error("Failed to get place information",
			zap.String("place", req.Place),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "generation_failed",
			Message: "Failed to get place information",
		})
	}

	return c.JSON(http.StatusOK, PlaceInfoResponse{
		Place:       req.Place,
		Information: information,
	})
}
