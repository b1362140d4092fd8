package netutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://www.ensembl.org/biomart/martservice", "ensembl.org"},
		{"https://thebiogrid.org", "thebiogrid.org"},
		{"https://www.ncbi.nlm.nih.gov/gene", "nih.gov"},
		{"https://www.genenames.org:443/", "genenames.org"},
		{"http://127.0.0.1:8080/x", "127.0.0.1"},
		{"http://localhost/", "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := RegistrableDomain(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistrableDomain_NoHost(t *testing.T) {
	_, err := RegistrableDomain("not-a-url")
	assert.Error(t, err)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "genediff", NormalizeUserAgent("genediff/0.1 (+https://github.com/ppiankov/genediff)"))
	assert.Equal(t, "curl", NormalizeUserAgent("curl"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "internal.example, .corp")

	req := func(raw string) *http.Request {
		u, _ := url.Parse(raw)
		return &http.Request{URL: u}
	}

	got, err := proxy(req("http://www.ensembl.org/biomart"))
	require.NoError(t, err)
	assert.Equal(t, "proxy:3128", got.Host)

	got, err = proxy(req("https://thebiogrid.org"))
	require.NoError(t, err)
	assert.Equal(t, "secure-proxy:3128", got.Host)

	got, err = proxy(req("http://mart.internal.example/x"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = proxy(req("http://a.corp/x"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRobotsChecker(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: genediff\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "genediff/0.1 (+https://example.org)")
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/biomart/martservice")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	_, err = checker.Check(ctx, server.URL+"/private/data")
	assert.True(t, errors.Is(err, ErrDisallowed))

	_, _, _ = checker.CanFetch(ctx, server.URL+"/biomart")
	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt should be fetched once per host")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "genediff")
	delay, err := checker.Check(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.Zero(t, delay)
}

func TestNewClient_StopsRedirectLoops(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "", "", "", 3)
	resp, err := client.Get(server.URL + "/a")
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 3 redirects")
}
