package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordCall("getLanguage", OutcomeSuccess, 10*time.Millisecond)
	r.RecordCall("getLanguage", OutcomeSuccess, 20*time.Millisecond)
	r.RecordCall("openURL", OutcomeRejected, 0)

	require.InDelta(t, 2, testutil.ToFloat64(r.calls.WithLabelValues("getLanguage", OutcomeSuccess)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.calls.WithLabelValues("openURL", OutcomeRejected)), 0)
	require.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorder_Pending(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.RecordSent()
	r.RecordSent()
	r.RecordSettled()

	require.InDelta(t, 1, testutil.ToFloat64(r.pending), 0)

	expected := `
# HELP bridge_pending_calls Calls waiting for a host reply.
# TYPE bridge_pending_calls gauge
bridge_pending_calls 1
`
	require.NoError(t, testutil.CollectAndCompare(r.pending, strings.NewReader(expected)))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder

	require.NotPanics(t, func() {
		r.RecordSent()
		r.RecordSettled()
		r.RecordCall("getLanguage", OutcomeTimeout, time.Second)
	})
}
