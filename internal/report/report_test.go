package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/txreplay/internal/runner"
)

func TestNewAssignsRunID(t *testing.T) {
	stats := runner.NewStats()

	a := New(1, 0, 0, stats, time.Second)
	b := New(1, 0, 0, stats, time.Second)

	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRender(t *testing.T) {
	stats := runner.NewStats()
	stats.Events = 1250
	stats.Applied = 1200
	stats.Rejected = 40
	stats.SkippedRecords = 10
	stats.RejectedByReason["client-locked"] = 30
	stats.RejectedByReason["missing-amount"] = 10

	r := New(3, 42, 2, stats, 1500*time.Millisecond)

	var buf bytes.Buffer
	r.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, r.RunID)
	assert.Contains(t, out, "1,250")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "client-locked")
	assert.Contains(t, out, "missing-amount")
	assert.Contains(t, out, "Warnings:        2")
	assert.Contains(t, out, "1.5s")
}

func TestRenderNoRejections(t *testing.T) {
	r := New(1, 1, 0, runner.NewStats(), time.Millisecond)

	var buf bytes.Buffer
	r.Render(&buf)

	assert.NotContains(t, buf.String(), "Rejections by reason")
	assert.NotContains(t, buf.String(), "Warnings:")
}
