package netfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/vbash/pkg/cerr"
)

func TestIsAllowed_CaseFoldsSchemeAndHostNotPath(t *testing.T) {
	list := AllowList{Entries: []Entry{{Scheme: "https", Host: "Example.com", PathPrefix: "/api/"}}}
	assert.True(t, isAllowed(list, "HTTPS", "example.COM", "/api/widgets"))
	assert.False(t, isAllowed(list, "https", "example.com", "/API/widgets"))
	assert.False(t, isAllowed(list, "https", "example.com", "/apiary"))
}

func TestMethodAllowed_DefaultsToGetHead(t *testing.T) {
	list := AllowList{}
	assert.True(t, methodAllowed(list, "GET"))
	assert.True(t, methodAllowed(list, "HEAD"))
	assert.False(t, methodAllowed(list, "POST"))
}

func TestFetch_DeniesOffAllowList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hi"))
	}))
	defer srv.Close()

	list := AllowList{Timeout: time.Second} // empty allow-list: nothing is reachable
	_, err := Fetch(context.Background(), list, "GET", srv.URL, nil)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.NetworkAccessDenied))
}

func TestFetch_AllowedOriginSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hi"))
	}))
	defer srv.Close()

	scheme, host, _, err := splitURL(srv.URL)
	require.NoError(t, err)
	list := AllowList{
		Entries: []Entry{{Scheme: scheme, Host: host, PathPrefix: "/"}},
		Methods: []string{"GET"},
		Timeout: time.Second,
	}
	resp, err := Fetch(context.Background(), list, "GET", srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "hi", string(resp.Body))
}

func TestFetch_MethodNotAllowed(t *testing.T) {
	list := AllowList{Methods: []string{"GET"}, Timeout: time.Second}
	_, err := Fetch(context.Background(), list, "POST", "https://example.com", nil)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.MethodNotAllowed))
}

func TestParseAllowList(t *testing.T) {
	entries, err := ParseAllowList("https://example.com/api/, http://internal.local/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Scheme: "https", Host: "example.com", PathPrefix: "/api/"}, entries[0])
	assert.Equal(t, Entry{Scheme: "http", Host: "internal.local", PathPrefix: "/"}, entries[1])
}

func TestParseAllowList_Empty(t *testing.T) {
	entries, err := ParseAllowList("  ")
	require.NoError(t, err)
	assert.Nil(t, entries)
}
