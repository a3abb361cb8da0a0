package people

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body><ul>
<li class="reusable-search__result-container">
  <a href="/in/jane-doe?miniProfileUrn=1">Jane Doe</a>
  <div>2nd degree</div>
  <div>VP Procurement at Acme</div>
  <div>Boston, MA</div>
</li>
<li class="reusable-search__result-container">
  <a href="https://www.linkedin.com/in/john-roe/">John Roe</a>
  <div>Student</div>
</li>
<li><a href="/company/acme">Acme</a></li>
</ul></body></html>`

func TestResolverSearchExtractsCards(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), "test-agent", "li_at=abc")
	got, err := r.Search(context.Background(), srv.URL+"/search/results/people/?keywords=Acme")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "li_at=abc", gotCookie)
	assert.Equal(t, "Jane Doe", got[0].Name)
	assert.Equal(t, "VP Procurement at Acme", got[0].Title)
	assert.Equal(t, srv.URL+"/in/jane-doe?miniProfileUrn=1", got[0].URL)
	assert.Contains(t, got[0].Text, "Boston, MA")

	assert.Equal(t, "John Roe", got[1].Name)
	assert.Empty(t, got[1].Title)
	assert.Equal(t, "https://www.linkedin.com/in/john-roe/", got[1].URL)
}

func TestResolverRejectsNonSearchURL(t *testing.T) {
	r := NewResolver(nil, "", "")
	_, err := r.Search(context.Background(), "https://www.linkedin.com/in/jane-doe")
	assert.ErrorIs(t, err, ErrNotSearchURL)
}

func TestResolverReportsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), "", "")
	_, err := r.Search(context.Background(), srv.URL+"/search/results/people/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
