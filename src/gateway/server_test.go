package gateway

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	monitor_kiosk "github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring/kiosk"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	testUser    = "0xbuyer"
	testDataset = "dataset-1"
	testSecret  = "test-secret"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	config  *config.Config
	db      *gorm.DB
	monitor *monitor_kiosk.Monitor
}

func (s *ServerTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.config = config.Default()
	s.config.Kiosk.MarketplaceId = "0xmarketplace"
	s.config.Kiosk.PriceCacheTTL = 0
	s.config.Kiosk.AggregatorUrl = "https://aggregator.example"
	s.config.Gateway.JwtSecret = ""
	s.config.Database.Driver = config.DriverSqlite
	s.config.Database.Name = "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	var err error
	s.db, err = model.NewConnection(s.ctx, s.config, "gateway-test")
	require.Nil(s.T(), err)

	s.monitor = monitor_kiosk.NewMonitor()
}

func (s *ServerTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil {
		sqlDB.Close()
	}
	s.cancel()
}

func (s *ServerTestSuite) server() *Server {
	return NewServer(s.config, s.db).WithMonitor(s.monitor)
}

func (s *ServerTestSuite) do(server *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.Nil(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "gateway-test")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) seedPurchasedDataset() {
	require.Nil(s.T(), s.db.Create(&model.KioskPurchase{
		UserAddress: testUser,
		DatasetId:   testDataset,
		SonarAmount: decimal.NewFromInt(1000),
		TxDigest:    "digest",
		CreatedAt:   time.Now(),
	}).Error)
	require.Nil(s.T(), s.db.Create(&model.Dataset{
		Id:           testDataset,
		Creator:      "0xcreator",
		SealPolicyId: sql.NullString{String: "seal_policy", Valid: true},
	}).Error)
	require.Nil(s.T(), s.db.Create(&model.DatasetBlob{
		Id:         "blob-row-1",
		DatasetId:  testDataset,
		FullBlobId: sql.NullString{String: "blob_full", Valid: true},
	}).Error)
}

func (s *ServerTestSuite) token(claims map[string]any, secret string) string {
	tok := jwt.New()
	require.Nil(s.T(), tok.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	for k, v := range claims {
		require.Nil(s.T(), tok.Set(k, v))
	}
	signed, err := jwt.Sign(tok, jwa.HS256, []byte(secret))
	require.Nil(s.T(), err)
	return "Bearer " + string(signed)
}

func (s *ServerTestSuite) accessLogs() (out []model.AccessLog) {
	require.Nil(s.T(), s.db.Find(&out).Error)
	return
}

func (s *ServerTestSuite) TestDefaultPrice() {
	w := s.do(s.server(), http.MethodGet, "/v1/kiosk/price", nil, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.NotEmpty(s.T(), w.Header().Get(HeaderRequestId))

	var body map[string]any
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(s.T(), "1000000000", body["sonar_price"])
	require.Equal(s.T(), "1000000000", body["sui_price"])
	require.Equal(s.T(), map[string]any{"sonar": "0", "sui": "0"}, body["reserve_balance"])
	require.EqualValues(s.T(), 1, body["current_tier"])
	require.Equal(s.T(), "0", body["circulating_supply"])
	require.Nil(s.T(), body["price_override"])
	require.Equal(s.T(), false, body["override_active"])

	_, err := time.Parse(time.RFC3339, body["last_synced_at"].(string))
	require.Nil(s.T(), err)

	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Gateway.State.PriceQueries.Load())
}

func (s *ServerTestSuite) TestRequestIdIsKept() {
	w := s.do(s.server(), http.MethodGet, "/v1/kiosk/price", nil, map[string]string{HeaderRequestId: "abc"})
	require.Equal(s.T(), "abc", w.Header().Get(HeaderRequestId))
}

func (s *ServerTestSuite) TestAccessGranted() {
	s.seedPurchasedDataset()

	w := s.do(s.server(), http.MethodPost, "/v1/kiosk/access", map[string]string{
		"datasetId":   testDataset,
		"userAddress": testUser,
	}, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var body map[string]string
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(s.T(), "https://aggregator.example/blobs/blob_full", body["download_url"])
	require.Equal(s.T(), "seal_policy", body["seal_policy_id"])

	logs := s.accessLogs()
	require.Len(s.T(), logs, 1)
	require.Equal(s.T(), model.AccessActionGranted, logs[0].Action)
	require.Equal(s.T(), "gateway-test", logs[0].UserAgent.String)
	require.True(s.T(), logs[0].IpAddress.Valid)
}

func (s *ServerTestSuite) TestAccessForbidden() {
	w := s.do(s.server(), http.MethodPost, "/v1/kiosk/access", map[string]string{
		"datasetId":   testDataset,
		"userAddress": testUser,
	}, nil)
	require.Equal(s.T(), http.StatusForbidden, w.Code)

	var body map[string]any
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	require.EqualValues(s.T(), http.StatusForbidden, body["statusCode"])

	logs := s.accessLogs()
	require.Len(s.T(), logs, 1)
	require.Equal(s.T(), model.AccessActionDenied, logs[0].Action)
}

func (s *ServerTestSuite) TestAccessNotFound() {
	require.Nil(s.T(), s.db.Create(&model.KioskPurchase{
		UserAddress: testUser,
		DatasetId:   testDataset,
		SonarAmount: decimal.NewFromInt(1),
		TxDigest:    "digest",
		CreatedAt:   time.Now(),
	}).Error)

	w := s.do(s.server(), http.MethodPost, "/v1/kiosk/access", map[string]string{
		"datasetId":   testDataset,
		"userAddress": testUser,
	}, nil)
	require.Equal(s.T(), http.StatusNotFound, w.Code)
	require.Len(s.T(), s.accessLogs(), 1)
}

func (s *ServerTestSuite) TestInvalidRequest() {
	server := s.server()

	w := s.do(server, http.MethodPost, "/v1/kiosk/access", map[string]string{"userAddress": testUser}, nil)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(server, http.MethodPost, "/v1/kiosk/access", map[string]string{"datasetId": testDataset}, nil)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	// Rejected before the service, nothing is logged
	require.Empty(s.T(), s.accessLogs())
}

func (s *ServerTestSuite) TestSession() {
	s.config.Gateway.JwtSecret = testSecret
	s.seedPurchasedDataset()
	server := s.server()
	body := map[string]string{"datasetId": testDataset}

	// Address claim
	w := s.do(server, http.MethodPost, "/v1/kiosk/access", body, map[string]string{
		"Authorization": s.token(map[string]any{"address": testUser}, testSecret),
	})
	require.Equal(s.T(), http.StatusOK, w.Code)

	// Subject fallback
	w = s.do(server, http.MethodPost, "/v1/kiosk/access", body, map[string]string{
		"Authorization": s.token(map[string]any{jwt.SubjectKey: testUser}, testSecret),
	})
	require.Equal(s.T(), http.StatusOK, w.Code)

	require.Len(s.T(), s.accessLogs(), 2)
}

func (s *ServerTestSuite) TestSessionRejected() {
	s.config.Gateway.JwtSecret = testSecret
	s.seedPurchasedDataset()
	server := s.server()
	body := map[string]string{"datasetId": testDataset, "userAddress": testUser}

	w := s.do(server, http.MethodPost, "/v1/kiosk/access", body, nil)
	require.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.do(server, http.MethodPost, "/v1/kiosk/access", body, map[string]string{
		"Authorization": s.token(map[string]any{"address": testUser}, "other-secret"),
	})
	require.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.do(server, http.MethodPost, "/v1/kiosk/access", body, map[string]string{
		"Authorization": s.token(map[string]any{"address": "0xsomeone"}, testSecret),
	})
	require.Equal(s.T(), http.StatusForbidden, w.Code)

	require.Equal(s.T(), uint64(2), s.monitor.GetReport().Gateway.Errors.AuthFailures.Load())
	require.Empty(s.T(), s.accessLogs())

	// Price stays public
	w = s.do(server, http.MethodGet, "/v1/kiosk/price", nil, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
}
