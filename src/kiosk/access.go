package kiosk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AccessMetadata struct {
	IpAddress string
	UserAgent string
}

type AccessRequest struct {
	DatasetId   string
	UserAddress string
	Metadata    AccessMetadata
}

type AccessGrant struct {
	DownloadUrl  string `json:"download_url"`
	SealPolicyId string `json:"seal_policy_id"`
}

// Upper bound of the audit write, it runs even after the request is cancelled
const auditTimeout = 5 * time.Second

// Issues download urls of purchased datasets
type AccessService struct {
	config  *config.Config
	log     *logrus.Entry
	store   *Store
	monitor monitoring.Monitor
	now     func() time.Time
}

func NewAccessService(config *config.Config, db *gorm.DB) (self *AccessService) {
	self = new(AccessService)
	self.config = config
	self.log = logger.NewSublogger("kiosk-access")
	self.store = NewStore(db)
	self.now = time.Now
	return
}

func (self *AccessService) WithMonitor(monitor monitoring.Monitor) *AccessService {
	self.monitor = monitor
	return self
}

func (self *AccessService) WithClock(now func() time.Time) *AccessService {
	self.now = now
	return self
}

// Aggregator url when configured, otherwise the dataset is streamed by the backend
func (self *AccessService) downloadUrl(datasetId, blobId string) string {
	aggregator := strings.TrimRight(self.config.Kiosk.AggregatorUrl, "/")
	if aggregator != "" {
		return aggregator + "/blobs/" + url.PathEscape(blobId)
	}
	return "/api/datasets/" + url.PathEscape(datasetId) + "/stream"
}

func (self *AccessService) resolve(ctx context.Context, req *AccessRequest) (out *AccessGrant, err error) {
	purchase, err := self.store.LatestPurchase(ctx, req.UserAddress, req.DatasetId)
	if err != nil {
		return
	}
	if purchase == nil {
		return nil, ErrUnauthorized
	}

	dataset, err := self.store.GetDataset(ctx, req.DatasetId)
	if err != nil {
		return
	}
	if dataset == nil || !dataset.SealPolicyId.Valid || dataset.SealPolicyId.String == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.DatasetId)
	}

	blob, err := self.store.GetDatasetBlob(ctx, req.DatasetId)
	if err != nil {
		return
	}
	if blob == nil || !blob.FullBlobId.Valid || blob.FullBlobId.String == "" {
		return nil, fmt.Errorf("%w: blob of %s", ErrNotFound, req.DatasetId)
	}

	return &AccessGrant{
		DownloadUrl:  self.downloadUrl(req.DatasetId, blob.FullBlobId.String),
		SealPolicyId: dataset.SealPolicyId.String,
	}, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// Checks the purchase and returns the download url with the decryption policy.
// Exactly one access log is written per call, whatever the outcome. Errors are *AccessError.
func (self *AccessService) IssueKioskAccessGrant(ctx context.Context, req AccessRequest) (out *AccessGrant, err error) {
	log := self.log.WithField("user", req.UserAddress).WithField("dataset", req.DatasetId)

	out, err = self.resolve(ctx, &req)

	action := model.AccessActionGranted
	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthorized):
		action = model.AccessActionDenied
	default:
		action = model.AccessActionFailed
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	logErr := self.store.CreateAccessLog(auditCtx, &model.AccessLog{
		UserAddress: req.UserAddress,
		DatasetId:   req.DatasetId,
		Action:      action,
		IpAddress:   nullString(req.Metadata.IpAddress),
		UserAgent:   nullString(req.Metadata.UserAgent),
		Timestamp:   self.now(),
	})
	if logErr != nil && self.monitor != nil {
		self.monitor.GetReport().Gateway.Errors.AuditLogFailures.Inc()
	}

	switch {
	case err != nil:
		log.WithError(err).WithField("action", action).Info("Access not granted")
		self.count(action)
		return nil, newAccessError(err)
	case logErr != nil:
		// Grants without an audit trail aren't returned
		self.count(model.AccessActionFailed)
		return nil, newAccessError(logErr)
	}

	log.Info("Access granted")
	self.count(action)
	return out, nil
}

func (self *AccessService) count(action model.AccessAction) {
	if self.monitor == nil {
		return
	}
	state := &self.monitor.GetReport().Gateway.State
	switch action {
	case model.AccessActionGranted:
		state.GrantsIssued.Inc()
	case model.AccessActionDenied:
		state.GrantsDenied.Inc()
	default:
		state.GrantsFailed.Inc()
	}
}
