package gateway

import (
	"errors"
	"net/http"

	"github.com/sonar-protocol/kiosk-syncer/src/gateway/request"
	"github.com/sonar-protocol/kiosk-syncer/src/gateway/response"
	"github.com/sonar-protocol/kiosk-syncer/src/kiosk"
	. "github.com/sonar-protocol/kiosk-syncer/src/utils/logger"

	"github.com/gin-gonic/gin"
)

var (
	ErrMissingAddress  = errors.New("user address is required")
	ErrAddressMismatch = errors.New("user address doesn't match the session")
)

func (self *Server) onPostAccess(c *gin.Context) {
	var in request.PostAccess
	err := c.ShouldBindJSON(&in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Debug("Invalid access request")
		return
	}

	address := in.UserAddress
	if session := c.GetString(ContextSessionAddress); session != "" {
		if address != "" && address != session {
			LOGE(c, ErrAddressMismatch, http.StatusForbidden).
				WithField("session", session).
				WithField("address", address).
				Info("Address mismatch")
			return
		}
		address = session
	}

	if address == "" {
		LOGE(c, ErrMissingAddress, http.StatusBadRequest).Debug("Invalid access request")
		return
	}

	grant, err := self.access.IssueKioskAccessGrant(c.Request.Context(), kiosk.AccessRequest{
		DatasetId:   in.DatasetId,
		UserAddress: address,
		Metadata: kiosk.AccessMetadata{
			IpAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	})
	if err != nil {
		status := http.StatusInternalServerError
		var accessErr *kiosk.AccessError
		if errors.As(err, &accessErr) {
			status = accessErr.StatusCode
		}
		LOGE(c, err, status).Info("Access grant refused")
		return
	}

	c.JSON(http.StatusOK, response.AccessGrantToResponse(grant))
}
