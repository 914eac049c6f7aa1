/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		" DEBUG ": logrus.DebugLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "value")
	t.Setenv("UTILS_TEST_BOOL", "on")
	t.Setenv("UTILS_TEST_FALSE", "nope")
	t.Setenv("UTILS_TEST_DUR", "1500ms")
	t.Setenv("UTILS_TEST_SECS", "3")
	t.Setenv("UTILS_TEST_BAD", "soon")

	assert.Equal(t, "value", EnvDefaultString("UTILS_TEST_STR", "x"))
	assert.Equal(t, "x", EnvDefaultString("UTILS_TEST_UNSET", "x"))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))
	assert.False(t, EnvDefaultBool("UTILS_TEST_FALSE", true))
	assert.True(t, EnvDefaultBool("UTILS_TEST_UNSET", true))
	assert.Equal(t, 1500*time.Millisecond, EnvDefaultDuration("UTILS_TEST_DUR", 0))
	assert.Equal(t, 3*time.Second, EnvDefaultDuration("UTILS_TEST_SECS", 0))
	assert.Equal(t, time.Minute, EnvDefaultDuration("UTILS_TEST_BAD", time.Minute))
}

func TestNewLoggerRegistry(t *testing.T) {
	a := NewLogger("REGISTRY")
	assert.Same(t, a, NewLogger("REGISTRY"))
	assert.Contains(t, LoggerNames(), "REGISTRY")

	assert.True(t, SetLoggerLevel("registry", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("NO_SUCH_LOGGER", "error"))

	ConfigureLogLevel("warn")
	t.Cleanup(func() { ConfigureLogLevel("debug") })
	assert.Equal(t, logrus.WarnLevel, a.GetLevel())
}

func TestLog4jColorFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&Log4jColorFormatter{LoggerName: "QUERY", NameWidth: 3})

	l.WithField("rows", 2).WithField("op", "fetch").Info("Executing query")

	line := buf.String()
	assert.Contains(t, line, "   INFO ")
	assert.Contains(t, line, "- [main] QUE : Executing query op=fetch rows=2")
	assert.NotContains(t, line, ansiReset)
}

func TestJSONLogFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "QUERY"})

	l.WithError(errors.New("boom")).Warn("fetch failed")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "QUERY", rec["logger"])
	assert.Equal(t, "fetch failed", rec["message"])
	assert.Equal(t, map[string]interface{}{"error": "boom"}, rec["fields"])
}

func TestCallerLocation(t *testing.T) {
	assert.Equal(t, "query/fetch.go:42", callerLocation("/src/querydsl/query/fetch.go", 42))
	assert.Equal(t, "main.go:1", callerLocation("main.go", 1))
}

func TestConsoleOutputAndFormat(t *testing.T) {
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	ConfigureConsoleLogFormat("JSON")
	t.Cleanup(func() {
		ConfigureConsoleOutput(nil)
		ConfigureConsoleLogFormat("text")
	})

	l := NewLogger("CONSOLE_JSON")
	l.SetLevel(logrus.InfoLevel)
	l.Info("ready")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "CONSOLE_JSON", rec["logger"])
	assert.Contains(t, rec["caller"], "utils/logger_test.go:")
}
