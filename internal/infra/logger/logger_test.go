package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Configure(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		environment string
		wantLevel   logrus.Level
		wantJSON    bool
	}{
		{name: "production uses json", level: "warn", environment: "production", wantLevel: logrus.WarnLevel, wantJSON: true},
		{name: "staging uses json", level: "DEBUG", environment: "Staging", wantLevel: logrus.DebugLevel, wantJSON: true},
		{name: "development uses text", level: "info", environment: "development", wantLevel: logrus.InfoLevel},
		{name: "unknown level falls back to info", level: "loud", environment: "", wantLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := logrus.New()

			Configure(l, &buf, tt.level, tt.environment)

			assert.Equal(t, tt.wantLevel, l.GetLevel())
			_, isJSON := l.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func Test_Configure_jsonFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, &buf, "info", "production")

	l.WithField("component", "scheduler").Info("tick")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scheduler", line["component"])
	assert.Equal(t, "tick", line["msg"])
}
