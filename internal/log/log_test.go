package log_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/scalasync/clc/internal/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogrus_WritesFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.Out = &buf
	base.SetFormatter(&logrus.JSONFormatter{})

	var l log.Logger = log.NewLogrus(base)
	l.WithField("pass", 1).WithError(errors.New("boom")).Warn("forward: pass complete")

	require.Contains(t, buf.String(), `"pass":1`)
	require.Contains(t, buf.String(), "boom")
	require.Contains(t, buf.String(), "forward: pass complete")
}

func TestDiscard_NeverPanics(t *testing.T) {
	var l log.Logger = log.Discard{}
	l.WithFields(map[string]any{"a": 1}).WithError(errors.New("x")).Error("unreachable")
}
