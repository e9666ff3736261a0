package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpers(t *testing.T) {
	m := DefaultMetrics

	before := testutil.ToFloat64(m.SignalsReceived.WithLabelValues("open"))
	RecordSignal("open")
	assert.Equal(t, before+1, testutil.ToFloat64(m.SignalsReceived.WithLabelValues("open")))

	before = testutil.ToFloat64(m.SignalsSkipped.WithLabelValues("duplicate"))
	RecordSignalSkipped("duplicate")
	assert.Equal(t, before+1, testutil.ToFloat64(m.SignalsSkipped.WithLabelValues("duplicate")))

	before = testutil.ToFloat64(m.TradesTotal.WithLabelValues("buy", "amm", "success"))
	RecordTrade("buy", "amm", "success", 0.2)
	assert.Equal(t, before+1, testutil.ToFloat64(m.TradesTotal.WithLabelValues("buy", "amm", "success")))

	before = testutil.ToFloat64(m.BlockhashRefreshes.WithLabelValues("error"))
	RecordBlockhashRefresh(errors.New("rpc down"))
	assert.Equal(t, before+1, testutil.ToFloat64(m.BlockhashRefreshes.WithLabelValues("error")))

	before = testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert"))
	RecordDBQuery("postgres", "insert", 0.01, nil)
	RecordDBQuery("postgres", "insert", 0.01, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert")))

	SetActivePositions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActivePositions))

	RecordPoll(1_700_000_000)
	assert.Equal(t, 1.7e9, testutil.ToFloat64(m.LastSuccessfulPoll))
}

func TestHandler_ServesMetrics(t *testing.T) {
	RecordVenueFallback("bonding_curve", "amm")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "copy_trader_trades_venue_fallbacks_total")
}
