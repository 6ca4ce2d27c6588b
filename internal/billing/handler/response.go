package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"braintech-system/internal/billing"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// respondError translates engine errors into HTTP statuses. Unknown errors
// stay opaque to the client.
func respondError(c *gin.Context, err error) {
	if domainErr, ok := billing.AsError(err); ok {
		status := http.StatusInternalServerError
		switch domainErr.Kind {
		case billing.KindValidation:
			status = http.StatusBadRequest
		case billing.KindNotFound:
			status = http.StatusNotFound
		case billing.KindConflict, billing.KindState:
			status = http.StatusConflict
		case billing.KindGeneration:
			status = http.StatusInternalServerError
		}
		c.JSON(status, APIResponse{
			Success: false,
			Message: domainErr.Message,
			Kind:    string(domainErr.Kind),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
}
