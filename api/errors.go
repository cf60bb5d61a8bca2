package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewlens/types"
)

// writeError maps the error taxonomy onto HTTP statuses and renders the
// standard error envelope.
func writeError(c *gin.Context, err error) {
	kind := types.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case types.KindValidation:
		status = http.StatusBadRequest
	case types.KindNotFound:
		status = http.StatusNotFound
	case types.KindConflict, types.KindProductNotReady:
		status = http.StatusConflict
	case types.KindUpstreamQuota:
		status = http.StatusTooManyRequests
	case types.KindUpstreamTransient, types.KindUpstreamMalformed, types.KindNoSourcesFound:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Printf("[api] internal error: %v", err)
	}
	c.JSON(status, gin.H{
		"error": gin.H{
			"kind":    string(kind),
			"message": errMessage(err),
		},
	})
}

func errMessage(err error) string {
	var terr *types.Error
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}
	return err.Error()
}
