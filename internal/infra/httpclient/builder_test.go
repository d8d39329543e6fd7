package httpclient

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
)

func TestBuildRequestJSON(t *testing.T) {
	req, err := BuildRequest(context.Background(), http.MethodPost, "http://example.test/json",
		map[string]string{"X-Test": "yes"}, map[string]any{"foo": "bar"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/json", req.URL.Path)
	assert.Equal(t, "yes", req.Header.Get("X-Test"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"foo":"bar"}`, string(body))
}

func TestBuildRequestExplicitContentTypeWins(t *testing.T) {
	req, err := BuildRequest(context.Background(), http.MethodPut, "http://example.test/x",
		map[string]string{"Content-Type": "application/merge-patch+json"}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "application/merge-patch+json", req.Header.Get("Content-Type"))
}

func TestBuildRequestNoBody(t *testing.T) {
	req, err := BuildRequest(context.Background(), http.MethodGet, "http://example.test/x", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Equal(t, http.NoBody, req.Body)
}

func TestBuildRequestEmptyURL(t *testing.T) {
	_, err := BuildRequest(context.Background(), http.MethodGet, "  ", nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}

func TestBuildRequestUnencodableBody(t *testing.T) {
	_, err := BuildRequest(context.Background(), http.MethodPost, "http://example.test/x", nil, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindProcessing))
}
