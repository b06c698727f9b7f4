package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	monitor_kiosk "github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring/kiosk"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	config  *config.Config
	monitor *monitor_kiosk.Monitor
	server  *Server
}

func (s *ServerTestSuite) SetupSuite() {
	s.config = config.Default()
	s.config.Profiler.Enabled = true
	s.monitor = monitor_kiosk.NewMonitor().WithMaxHistorySize(3)
	s.server = NewServer(s.config).WithMonitor(s.monitor)
}

func (s *ServerTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.server.Router.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) TestState() {
	s.monitor.GetReport().Kiosk.State.SyncsUpdated.Inc()
	s.monitor.GetReport().Kiosk.State.CurrentTier.Store(2)

	w := s.get("/v1/state")
	require.Equal(s.T(), http.StatusOK, w.Code)

	var body map[string]map[string]map[string]any
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	require.EqualValues(s.T(), 1, body["kiosk"]["state"]["syncs_updated"])
	require.EqualValues(s.T(), 2, body["kiosk"]["state"]["current_tier"])
}

func (s *ServerTestSuite) TestHealth() {
	w := s.get("/v1/health")
	require.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *ServerTestSuite) TestMetrics() {
	s.monitor.GetReport().Gateway.State.GrantsIssued.Inc()

	w := s.get("/metrics")
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.True(s.T(), strings.Contains(w.Body.String(), "gateway_grants_issued 1"))
	require.True(s.T(), strings.Contains(w.Body.String(), "kiosk_syncs_updated"))
}

func (s *ServerTestSuite) TestProfiler() {
	w := s.get("/debug/pprof/cmdline")
	require.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *ServerTestSuite) TestAverageSyncDuration() {
	m := monitor_kiosk.NewMonitor().WithMaxHistorySize(3)
	m.OnSyncFinished(10 * time.Millisecond)
	m.OnSyncFinished(20 * time.Millisecond)
	require.Equal(s.T(), 15.0, m.GetReport().Kiosk.State.AverageSyncDurationMs.Load())

	// Oldest value leaves the window
	m.OnSyncFinished(30 * time.Millisecond)
	m.OnSyncFinished(40 * time.Millisecond)
	require.Equal(s.T(), 30.0, m.GetReport().Kiosk.State.AverageSyncDurationMs.Load())
	require.Equal(s.T(), int64(40), m.GetReport().Kiosk.State.LastSyncDurationMs.Load())
}

func (s *ServerTestSuite) TestSyncHealth() {
	m := monitor_kiosk.NewMonitor().WithSyncHealthCheck(time.Minute)
	require.True(s.T(), m.IsOK())

	// Started long ago, never synced
	m.GetReport().Run.State.StartTimestamp.Store(time.Now().Add(-time.Hour).Unix())
	require.False(s.T(), m.IsOK())

	m.GetReport().Kiosk.State.LastSyncedTimestamp.Store(time.Now().Unix())
	require.True(s.T(), m.IsOK())
}
