package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndServe(t *testing.T) {
	t.Parallel()

	m, err := New()
	require.NoError(t, err)

	m.AudioBytes.WithLabelValues("player").Add(4096)
	m.AudioDrops.WithLabelValues("recorder").Inc()
	m.BERPercent.Set(1.5)
	m.ProcessExits.WithLabelValues("receiver", "intentional").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hdrd_audio_bytes_total{consumer="player"} 4096`)
	assert.Contains(t, body, `hdrd_ber_percent 1.5`)
	assert.Contains(t, body, `hdrd_process_exits_total{class="intentional",role="receiver"} 1`)
}
