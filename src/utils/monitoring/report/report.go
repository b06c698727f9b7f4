package report

// Counters exposed by the monitoring server
type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Kiosk          *KioskReport          `json:"kiosk,omitempty"`
	Gateway        *GatewayReport        `json:"gateway,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
}
