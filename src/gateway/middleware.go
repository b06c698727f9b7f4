package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	. "github.com/sonar-protocol/kiosk-syncer/src/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/rs/xid"
	"github.com/teivah/onecontext"
)

const (
	HeaderRequestId = "X-Request-Id"

	// Wallet address taken from the session token
	ContextSessionAddress = "session_address"
)

var (
	ErrMissingSession = errors.New("missing session token")
	ErrInvalidSession = errors.New("invalid session token")
)

// Reuses the caller's request id or generates a new one
func (self *Server) requestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestId)
		if id == "" || len(id) > 64 {
			id = xid.New().String()
		}
		c.Set(ContextRequestId, id)
		c.Header(HeaderRequestId, id)
		c.Next()
	}
}

// Requests are cancelled when the client goes away, the server stops or the request takes too long
func (self *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := onecontext.Merge(self.Ctx, c.Request.Context())
		defer cancel()

		if self.Config.Gateway.ServerRequestTimeout > 0 {
			var cancelTimeout context.CancelFunc
			ctx, cancelTimeout = context.WithTimeout(ctx, self.Config.Gateway.ServerRequestTimeout)
			defer cancelTimeout()
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (self *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		LOG(c).WithField("status", c.Writer.Status()).
			WithField("duration", time.Since(start)).
			Debug("Request handled")
	}
}

// Verifies the HS256 session token and stores its address. Does nothing when sessions are disabled
func (self *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if self.Config.Gateway.JwtSecret == "" {
			c.Next()
			return
		}

		address, err := self.parseSession(c.GetHeader("Authorization"))
		if err != nil {
			if self.monitor != nil {
				self.monitor.GetReport().Gateway.Errors.AuthFailures.Inc()
			}
			LOGE(c, err, http.StatusUnauthorized).Info("Session rejected")
			return
		}

		c.Set(ContextSessionAddress, address)
		c.Next()
	}
}

func (self *Server) parseSession(header string) (address string, err error) {
	raw := strings.TrimSpace(header)
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return "", ErrMissingSession
	}
	raw = strings.TrimSpace(raw[7:])

	token, err := jwt.ParseString(raw,
		jwt.WithVerify(jwa.HS256, []byte(self.Config.Gateway.JwtSecret)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidSession, err)
	}

	if claim, ok := token.Get(self.Config.Gateway.JwtAddressClaim); ok {
		if s, ok := claim.(string); ok && s != "" {
			return s, nil
		}
	}

	if token.Subject() != "" {
		return token.Subject(), nil
	}

	return "", ErrInvalidSession
}
