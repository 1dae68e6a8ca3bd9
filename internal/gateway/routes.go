package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/droneops/landingd/internal/protocol"
)

// adminRouter serves the operator surface: health, registry snapshot, metrics.
func (s *Service) adminRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "landingd",
			"connected": s.hub.Len(),
			"sessions":  s.coordinator.Registry().ActiveCount(),
		})
	})

	router.GET("/api/deliveries/active", func(c *gin.Context) {
		sessions := s.coordinator.Registry().Snapshot()
		entries := make([]protocol.ActiveDelivery, 0, len(sessions))
		for _, session := range sessions {
			entries = append(entries, protocol.ActiveDelivery{
				DeviceIdentity: string(session.DeviceID),
				DeliveryID:     session.DeliveryID,
				DeviceAddress:  session.DeviceAddress,
			})
		}
		c.JSON(http.StatusOK, entries)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
