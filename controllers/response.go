package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/services"
	"go.uber.org/zap"
)

// statusFor maps a service failure kind to the HTTP status sent back
var statusFor = map[services.Kind]int{
	services.KindAuth:       http.StatusUnauthorized,
	services.KindForbidden:  http.StatusForbidden,
	services.KindValidation: http.StatusBadRequest,
	services.KindNotFound:   http.StatusNotFound,
	services.KindRule:       http.StatusConflict,
	services.KindConflict:   http.StatusConflict,
	services.KindUpstream:   http.StatusBadGateway,
	services.KindStore:      http.StatusInternalServerError,
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondOutcome is a success that also tells the client what happened,
// e.g. an item that was already in the cart.
func respondOutcome(c *gin.Context, status int, data interface{}, outcome, notice string) {
	body := gin.H{
		"success": true,
		"data":    data,
		"outcome": outcome,
	}
	if notice != "" {
		body["notice"] = notice
	}
	c.JSON(status, body)
}

func respondFail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError writes the envelope for a service error. Store and upstream
// failures are logged here so handlers don't have to.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		log.Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		respondFail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	status, ok := statusFor[se.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError || se.Kind == services.KindUpstream {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.String("code", se.Code), zap.Error(err))
	}
	respondFail(c, status, se.Code, se.Error())
}

func invalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}
