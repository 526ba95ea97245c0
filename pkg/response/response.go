package response

import (
	"errors"
	"fmt"
	"net/http"

	"anoa.com/warbler/pkg/apperror"
	"anoa.com/warbler/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const unauthorizedMessage = "access unauthorized"

// Error renders err with the status MapErrorToStatus picks. Unauthorized and
// forgery failures share one generic body so callers cannot tell them apart.
func Error(c *gin.Context, err error) {
	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitErr.Message})
		return
	}

	code := apperror.MapErrorToStatus(err)
	message := err.Error()

	switch code {
	case http.StatusUnauthorized:
		message = unauthorizedMessage
	case http.StatusInternalServerError:
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("RequestID"),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("internal error")
		message = apperror.ErrInternal.Error()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

