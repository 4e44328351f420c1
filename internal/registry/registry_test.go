package registry

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const orginfoSearchPage = `<html><body>
<a href="/en/organization/news">Daily news</a>
<a href="/en/organization/paxta-group-307218383">MCHJ "PAXTA GROUP"</a>
<a href="/en/organization/paxta-invest-300000001">MCHJ "PAXTA INVEST"</a>
</body></html>`

const orginfoCardPage = `<html><body>
<h1>PAXTA GROUP MCHJ</h1>
<div><h5>Contact information</h5><p>Tashkent, Chilanzar 5</p></div>
<div><h5>Management information</h5><a href="/en/person/1">ALIYEV A.A.</a></div>
<div>
  <h5>Founders</h5>
  <a href="/en/organization/308123456">OOO PROMRESURS</a>
  <a href="/en/person/petrov">PETROV P.P.</a>
</div>
</body></html>`

const egrulCardPage = `<html><head><title>ООО РОМАШКА</title></head><body>
<div id="chief"><a href="/person/1">Иванов Иван Иванович</a></div>
<div id="СвАдресЮЛ">г. Москва, ул. Ленина, д. 1</div>
<div id="СвУчредит">
  <a href="/7701234567">ООО ПРОМРЕСУРС</a>
  <a href="/person/sidorov">Сидоров С.С.</a>
</div>
</body></html>`

func newTestOrginfo(t *testing.T, baseURL string) *OrginfoClient {
	t.Helper()
	c, err := NewOrginfoClient(slog.Default(), baseURL, 2*time.Second, 0)
	require.NoError(t, err)
	return c
}

func newTestEgrul(t *testing.T, baseURL string) *EgrulClient {
	t.Helper()
	c, err := NewEgrulClient(slog.Default(), baseURL, 2*time.Second, 0)
	require.NoError(t, err)
	return c
}

func TestOrginfoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, orginfoSearchPath, r.URL.Path)
		require.Equal(t, "paxta group", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(orginfoSearchPage))
	}))
	defer srv.Close()

	link, err := newTestOrginfo(t, srv.URL).Search(context.Background(), "paxta group")
	require.NoError(t, err)
	// Первое совпадение по тексту ссылки, регистр не важен.
	require.Equal(t, srv.URL+"/en/organization/paxta-group-307218383", link)
}

func TestOrginfoSearchMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(orginfoSearchPage))
	}))
	defer srv.Close()

	link, err := newTestOrginfo(t, srv.URL).Search(context.Background(), "nesushestvuet")
	require.NoError(t, err)
	require.Empty(t, link)
}

func TestOrginfoFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(orginfoCardPage))
	}))
	defer srv.Close()

	fragment, err := newTestOrginfo(t, srv.URL).Fetch(context.Background(), "/en/organization/paxta-group-307218383")
	require.NoError(t, err)

	require.Equal(t, "PAXTA GROUP MCHJ", fragment.Name)
	require.Equal(t, "ALIYEV A.A.", fragment.CEO)
	require.Equal(t, "Tashkent, Chilanzar 5", fragment.Address)
	require.Len(t, fragment.Founders, 2)
	require.Equal(t, "OOO PROMRESURS", fragment.Founders[0].Name)
	require.Equal(t, "308123456", fragment.Founders[0].Identifier)
	require.Equal(t, "PETROV P.P.", fragment.Founders[1].Name)
	require.Empty(t, fragment.Founders[1].Identifier)
}

func TestOrginfoFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestOrginfo(t, srv.URL).Fetch(context.Background(), "/en/organization/x")
	require.ErrorIs(t, err, ErrRegistryUnavailable)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	require.Equal(t, "orginfo", fetchErr.Registry)
}

func TestEgrulFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/7707083893", r.URL.Path)
		_, _ = w.Write([]byte(egrulCardPage))
	}))
	defer srv.Close()

	fragment, err := newTestEgrul(t, srv.URL).Fetch(context.Background(), "7707083893")
	require.NoError(t, err)

	require.Equal(t, "ООО РОМАШКА", fragment.Name)
	require.Equal(t, "Иванов Иван Иванович", fragment.CEO)
	require.Equal(t, "г. Москва, ул. Ленина, д. 1", fragment.Address)
	require.Len(t, fragment.Founders, 2)
	require.Equal(t, "7701234567", fragment.Founders[0].Identifier)
	require.Empty(t, fragment.Founders[1].Identifier)
	require.Equal(t, srv.URL+"/7707083893", fragment.PDFLink)
}

func TestEgrulSearchAlwaysMiss(t *testing.T) {
	link, err := newTestEgrul(t, "http://example.invalid").Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Empty(t, link)
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEgrul(t, "http://example.invalid").Fetch(ctx, "123")
	require.ErrorIs(t, err, context.Canceled)
}

func TestIdentifierFromHref(t *testing.T) {
	cases := map[string]string{
		"/7701234567":              "7701234567",
		"/7701234567/":             "7701234567",
		"/en/organization/3081234": "3081234",
		"/en/person/petrov":        "",
		"":                         "",
		"/":                        "",
	}
	for href, want := range cases {
		require.Equal(t, want, identifierFromHref(href), href)
	}
}
