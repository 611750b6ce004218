package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/authz"
)

// writeDecision translates a negative authorization result into the matching
// HTTP response. NotFound and Deny must map to different status classes so a
// missing parent resource is never reported as a permission failure.
func writeDecision(ctx *gin.Context, result authz.Result) {
	switch result.Decision {
	case authz.NotFound:
		ctx.JSON(http.StatusNotFound, gin.H{"error": result.Reason})
	default:
		ctx.JSON(http.StatusForbidden, gin.H{"error": result.Reason})
	}
}
