package gateway

import (
	"net/http"

	. "github.com/sonar-protocol/kiosk-syncer/src/utils/logger"

	"github.com/gin-gonic/gin"
)

func (self *Server) onGetPrice(c *gin.Context) {
	out, err := self.price.FetchKioskPrice(c.Request.Context())
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Failed to fetch kiosk price")
		return
	}

	c.JSON(http.StatusOK, out)
}
