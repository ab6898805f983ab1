package util

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure.internal:3128", "huggingface.co")

	req, _ := http.NewRequest(http.MethodGet, "https://example.com/train.tsv", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "secure.internal:3128", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "http://example.com/train.tsv", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", u.Host)
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://proxy.internal:3128", "huggingface.co")

	req, _ := http.NewRequest(http.MethodGet, "https://huggingface.co/api/repos/create", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestNewTransport_KeepsDefaultTimeouts(t *testing.T) {
	base := http.DefaultTransport.(*http.Transport)
	transport := NewTransport("http://proxy.internal:3128", "", "")

	assert.NotSame(t, base, transport)
	assert.Equal(t, base.TLSHandshakeTimeout, transport.TLSHandshakeTimeout)
	assert.Equal(t, base.IdleConnTimeout, transport.IdleConnTimeout)
	assert.Equal(t, base.MaxIdleConns, transport.MaxIdleConns)
	assert.NotNil(t, transport.DialContext)

	req, err := http.NewRequest(http.MethodGet, "http://example.com/train.tsv", nil)
	require.NoError(t, err)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	require.NotNil(t, proxyURL)
	assert.Equal(t, "proxy.internal:3128", proxyURL.Host)
}
