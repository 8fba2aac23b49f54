// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveAttempt()
	m.ObserveAttempt()
	m.ObserveRetry()
	m.ObserveThrottled()
	m.ObserveMessage("user")
	m.ObserveCompletion(OutcomeSuccess, 1500*time.Millisecond)
	m.ObserveCompletion(OutcomeUnrecognized, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.throttled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("unrecognized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("user")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt()
	m.ObserveRetry()
	m.ObserveThrottled()
	m.ObserveMessage("assistant")
	m.ObserveCompletion(OutcomeCancelled, 0)
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAttempt()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "rigchat_completion_attempts_total 1"))
}
