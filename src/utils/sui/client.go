package sui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/build_info"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/task"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// JSON-RPC client of a Sui full node
type Client struct {
	client  *resty.Client
	config  *config.Sui
	log     *logrus.Entry
	limiter *rate.Limiter

	// Id of the next JSON-RPC request
	nextId *atomic.Uint64
}

func NewClient(config *config.Sui) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("sui-client")
	self.nextId = atomic.NewUint64(1)
	self.limiter = rate.NewLimiter(rate.Every(self.config.LimiterInterval), self.config.LimiterBurstSize)

	self.client =
		resty.New().
			SetTimeout(self.config.RequestTimeout).
			SetHeader("User-Agent", "sonar/kiosk-syncer/"+build_info.Version).
			SetHeader("Content-Type", "application/json").
			// Retries are handled by the query executor
			SetRetryCount(0).
			SetLogger(NewLogger()).
			SetTransport(self.createTransport()).
			OnBeforeRequest(self.onRateLimit).
			OnAfterResponse(self.onStatusToError)

	return
}

func (self *Client) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.DialerTimeout,
		KeepAlive: self.config.DialerKeepAlive,
	}

	return &http.Transport{
		// Some config options disable http2, try it anyway
		ForceAttemptHTTP2: true,

		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   self.config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		IdleConnTimeout:     self.config.IdleConnTimeout,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
	}
}

// Blocks till the request is possible or ctx gets canceled
func (self *Client) onRateLimit(c *resty.Client, req *resty.Request) (err error) {
	err = self.limiter.Wait(req.Context())
	if err != nil {
		d, _ := req.Context().Deadline()
		self.log.WithField("deadline", time.Until(d)).WithError(err).Error("Rate limiting failed")
	}
	return
}

// Converts HTTP status to errors
func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() > 399 && resp.StatusCode() < 500 {
		self.log.WithField("status", resp.StatusCode()).
			WithField("resp", string(resp.Body())).
			WithField("url", resp.Request.URL).
			Debug("Bad request")
	}
	return &StatusError{Status: resp.Status(), StatusCode: resp.StatusCode()}
}

type StatusError struct {
	Status     string
	StatusCode int
}

func (self *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", self.Status)
}

// Client errors other than rate limiting won't succeed on retry
func (self *StatusError) IsPermanent() bool {
	return self.StatusCode >= 400 && self.StatusCode < 500 && self.StatusCode != http.StatusTooManyRequests
}

// Query executor. Rate limited, transient failures are retried with an exponential backoff
func (self *Client) call(ctx context.Context, method string, params []any, out any) (err error) {
	return task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.BackoffMaxElapsedTime).
		WithMaxInterval(self.config.BackoffMaxInterval).
		WithAcceptableDuration(self.config.BackoffMaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}

			log := self.log.WithError(err).WithField("method", method)
			if isDurationAcceptable {
				log.Debug("Request failed, retrying")
			} else {
				log.Warn("Request failed, retrying")
			}
			return err
		}).
		Run(func() error {
			return self.do(ctx, method, params, out)
		})
}

func (self *Client) do(ctx context.Context, method string, params []any, out any) (err error) {
	req := rpcRequest{
		Jsonrpc: "2.0",
		Id:      self.nextId.Inc(),
		Method:  method,
		Params:  params,
	}

	var body rpcResponse

	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		ForceContentType("application/json").
		Post(self.config.RpcUrl)
	if err != nil {
		return
	}

	if body.Error != nil {
		return body.Error
	}

	if resp.StatusCode() != http.StatusOK || len(body.Result) == 0 {
		return fmt.Errorf("%w: empty result, status %d", ErrBadResponse, resp.StatusCode())
	}

	err = json.Unmarshal(body.Result, out)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadResponse, err)
	}

	return
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrBadResponse) {
		return true
	}

	var rpcErr *RpcError
	if errors.As(err, &rpcErr) {
		return rpcErr.IsPermanent()
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.IsPermanent()
	}

	return false
}

// Fetches an object with its type, owner and parsed Move content
func (self *Client) GetObject(ctx context.Context, id string) (out *ObjectData, err error) {
	var resp ObjectResponse
	err = self.call(ctx, "sui_getObject", []any{id, ObjectDataOptions{
		ShowType:    true,
		ShowContent: true,
		ShowOwner:   true,
	}}, &resp)
	if err != nil {
		return
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrObjectNotFound, id, resp.Error.Code)
	}

	if resp.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	return resp.Data, nil
}

// Fetches a shared Move object. Objects of other kinds are reported as bad responses
func (self *Client) GetSharedObject(ctx context.Context, id string) (out *ObjectData, err error) {
	out, err = self.GetObject(ctx, id)
	if err != nil {
		return
	}

	if out.Content == nil || out.Content.DataType != DataTypeMoveObject {
		return nil, fmt.Errorf("%w: %s is not a move object", ErrBadResponse, id)
	}

	if !out.Owner.IsShared() {
		self.log.WithField("id", id).Warn("Object is not shared")
	}

	return
}
