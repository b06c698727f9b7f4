package publisher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding"
	"errors"
	"fmt"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/build_info"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// Subset of the redis client used for publishing
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Forwards messages from the input channel to a Redis pub/sub channel
type RedisPublisher[In encoding.BinaryMarshaler] struct {
	*task.Task

	redisConfig config.Redis
	monitor     monitoring.Monitor

	client      RedisClient
	channelName string
	input       chan In

	// Used for publishing. Outlives Stop so that pending messages get flushed,
	// cancelled StopTimeout after Stop or once the workers finish
	publishCtx    context.Context
	publishCancel context.CancelFunc
}

func NewRedisPublisher[In encoding.BinaryMarshaler](config *config.Config, name string) (self *RedisPublisher[In]) {
	self = new(RedisPublisher[In])

	self.redisConfig = config.Redis
	self.channelName = config.Redis.Channel
	self.publishCtx, self.publishCancel = context.WithCancel(context.Background())

	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.connect).
		WithOnStop(self.limitFlush).
		// Pending messages are flushed before disconnecting
		WithWorkerPool(config.Redis.MaxWorkers, config.Redis.MaxQueueSize).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *RedisPublisher[In]) WithInputChannel(v chan In) *RedisPublisher[In] {
	self.input = v
	return self
}

func (self *RedisPublisher[In]) WithChannelName(v string) *RedisPublisher[In] {
	self.channelName = v
	return self
}

func (self *RedisPublisher[In]) WithMonitor(monitor monitoring.Monitor) *RedisPublisher[In] {
	self.monitor = monitor
	return self
}

// Uses an existing client instead of connecting on start
func (self *RedisPublisher[In]) WithClient(client RedisClient) *RedisPublisher[In] {
	self.client = client
	return self
}

func (self *RedisPublisher[In]) limitFlush() {
	time.AfterFunc(self.Config.StopTimeout, self.publishCancel)
}

func (self *RedisPublisher[In]) disconnect() {
	self.publishCancel()

	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *RedisPublisher[In]) tlsConfig() (out *tls.Config, err error) {
	if self.redisConfig.ClientCert == "" || self.redisConfig.ClientKey == "" || self.redisConfig.CaCert == "" {
		return nil, nil
	}

	cert, err := tls.X509KeyPair([]byte(self.redisConfig.ClientCert), []byte(self.redisConfig.ClientKey))
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM([]byte(self.redisConfig.CaCert)) {
		return nil, errors.New("failed to append CA cert to pool")
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
	}, nil
}

func (self *RedisPublisher[In]) connect() (err error) {
	if self.client == nil {
		opts := redis.Options{
			ClientName:      fmt.Sprintf("sonar/%s/%s", self.Name, build_info.Version),
			Addr:            fmt.Sprintf("%s:%d", self.redisConfig.Host, self.redisConfig.Port),
			Password:        self.redisConfig.Password,
			Username:        self.redisConfig.User,
			DB:              self.redisConfig.DB,
			MinIdleConns:    self.redisConfig.MinIdleConns,
			MaxIdleConns:    self.redisConfig.MaxIdleConns,
			ConnMaxIdleTime: self.redisConfig.ConnMaxIdleTime,
			PoolSize:        self.redisConfig.MaxOpenConns,
			ConnMaxLifetime: self.redisConfig.ConnMaxLifetime,
		}

		opts.TLSConfig, err = self.tlsConfig()
		if err != nil {
			return
		}

		self.client = redis.NewClient(&opts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = self.client.Ping(ctx).Err()
	if err != nil {
		self.Log.WithError(err).Error("Failed to ping Redis")
		return
	}

	return
}

func (self *RedisPublisher[In]) publish(payload In) {
	err := task.NewRetry().
		WithContext(self.publishCtx).
		WithMaxElapsedTime(self.redisConfig.MaxElapsedTime).
		WithMaxInterval(self.redisConfig.MaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			self.Log.WithError(err).Warn("Failed to publish message, retrying")
			self.monitor.GetReport().RedisPublisher.Errors.Publish.Inc()
			return err
		}).
		Run(func() error {
			return self.client.Publish(self.publishCtx, self.channelName, payload).Err()
		})
	if err != nil {
		self.Log.WithError(err).Error("Failed to publish message, giving up")
		self.monitor.GetReport().RedisPublisher.Errors.PersistentFailure.Inc()
		return
	}

	self.monitor.GetReport().RedisPublisher.State.MessagesPublished.Inc()
	self.monitor.GetReport().RedisPublisher.State.LastSuccessfulMessageTimestamp.Store(time.Now().Unix())
}

func (self *RedisPublisher[In]) submit(payload In) {
	self.SubmitToWorker(func() {
		self.publish(payload)
	})
}

// Publishes until the input is closed. After Stop the remaining messages are
// still taken, for at most StopTimeout if the producer never closes the input
func (self *RedisPublisher[In]) run() (err error) {
	for {
		select {
		case <-self.StopChannel:
			return self.drain()
		case payload, ok := <-self.input:
			if !ok {
				return nil
			}
			self.submit(payload)
		}
	}
}

func (self *RedisPublisher[In]) drain() error {
	timer := time.NewTimer(self.Config.StopTimeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			self.Log.Warn("Input not closed before timeout, stopping")
			return nil
		case payload, ok := <-self.input:
			if !ok {
				return nil
			}
			self.submit(payload)
		}
	}
}
