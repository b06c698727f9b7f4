package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Keys stored in the gin context by the gateway middlewares
const (
	ContextRequestId = "request_id"
	ContextLogger    = "logger"
)

type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// Logger bound to the request
func LOG(c *gin.Context) *logrus.Entry {
	v, ok := c.Get(ContextLogger)
	if ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}

	entry := NewSublogger("http").
		WithField("path", c.FullPath()).
		WithField("method", c.Request.Method)
	if id := c.GetString(ContextRequestId); id != "" {
		entry = entry.WithField("request_id", id)
	}
	c.Set(ContextLogger, entry)
	return entry
}

// Aborts the request with the status and the JSON error body, returns logger for the details
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, &errorResponse{Error: msg, StatusCode: status})

	entry := LOG(c).WithField("status", status)
	if err != nil {
		entry = entry.WithError(err)
	}
	return entry
}
