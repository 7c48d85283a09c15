package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(commentEdits.WithLabelValues("create"))
	CommentEdit("create")
	CommentEdit("create")
	assert.Equal(t, before+2, testutil.ToFloat64(commentEdits.WithLabelValues("create")))

	before = testutil.ToFloat64(ledgerUnavailable)
	LedgerUnavailable()
	assert.Equal(t, before+1, testutil.ToFloat64(ledgerUnavailable))

	UnreconciledClaims(7, 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(unreconciledClaims.WithLabelValues("7")))
	UnreconciledClaims(7, 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(unreconciledClaims.WithLabelValues("7")))

	before = testutil.ToFloat64(loopIterations.WithLabelValues("sync", "ok"))
	LoopIteration("sync", "ok", time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(loopIterations.WithLabelValues("sync", "ok")))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe_ExposesMetricsAndStops(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, logging.NewNop()) }()

	CommentEdit("update")

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, string(body), `fundwatch_comment_edits_total{kind="update"}`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not stop")
	}
}
