package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iurnickita/clarsix/internal/logger/config"
)

func TestNewZapLog(t *testing.T) {
	zl, err := NewZapLog(config.Config{})
	require.NoError(t, err)
	assert.True(t, zl.Core().Enabled(zap.InfoLevel))
	assert.False(t, zl.Core().Enabled(zap.DebugLevel))

	zl, err = NewZapLog(config.Config{LogLevel: "debug"})
	require.NoError(t, err)
	assert.True(t, zl.Core().Enabled(zap.DebugLevel))

	_, err = NewZapLog(config.Config{LogLevel: "loud"})
	require.Error(t, err)
}

func TestRequestLogMdlw(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	zaplog := zap.New(core)

	h := RequestLogMdlw(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusTeapot)
		w.Write(body)
	}, zaplog)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(`{"a":1}`)))
	// тело доступно хендлеру после логирования
	assert.Equal(t, `{"a":1}`, w.Body.String())

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, `{"a":1}`, entries[0].ContextMap()["body"])
	assert.Equal(t, "418", entries[1].ContextMap()["code"])
	assert.Equal(t, "7", entries[1].ContextMap()["length"])

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("username=a&password=b")))
	entries = logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "[redacted]", entries[2].ContextMap()["body"])
}
