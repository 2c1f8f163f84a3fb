package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() SearchParams {
	return SearchParams{
		Query:      "climate",
		StartTime:  "2020-01-01T00:00:00Z",
		EndTime:    "2020-01-02T23:59:59Z",
		MaxResults: 500,
	}
}

func TestSearchPage(t *testing.T) {
	t.Run("DecodesEnvelope", func(t *testing.T) {
		var gotPath string
		var gotQuery map[string][]string
		var gotAuth string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query()
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("x-rate-limit-remaining", "299")
			w.Write([]byte(`{
				"data": [
					{"id": "3", "text": "a", "created_at": "2020-01-01T10:00:00.000Z"},
					{"id": "2", "text": "b", "created_at": "2020-01-01T09:00:00.000Z"}
				],
				"meta": {"result_count": 2, "next_token": "abc"}
			}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "secret-token", 5*time.Second, nil)
		res, err := client.SearchPage(context.Background(), testParams(), "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, RecentSearchPath, gotPath)
		assert.Equal(t, "Bearer secret-token", gotAuth)
		assert.Equal(t, "climate", gotQuery["query"][0])
		assert.Equal(t, "2020-01-01T00:00:00Z", gotQuery["start_time"][0])
		assert.Equal(t, "2020-01-02T23:59:59Z", gotQuery["end_time"][0])
		assert.Equal(t, "500", gotQuery["max_results"][0])
		assert.NotContains(t, gotQuery, "next_token")

		require.NotNil(t, res.Page)
		assert.Len(t, res.Page.Tweets, 2)
		assert.Equal(t, 2, res.Page.ResultCount)
		assert.Equal(t, "abc", res.Page.NextToken)
		assert.Equal(t, 299, res.RateLimit.Remaining)
	})

	t.Run("ArchiveEndpointAndCursor", func(t *testing.T) {
		var gotPath string
		var gotToken string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotToken = r.URL.Query().Get("next_token")
			w.Write([]byte(`{"meta": {"result_count": 0}}`))
		}))
		defer server.Close()

		params := testParams()
		params.Archive = true
		client := NewClient(server.URL, "tok", 5*time.Second, nil)
		res, err := client.SearchPage(context.Background(), params, "abc")
		require.NoError(t, err)

		assert.Equal(t, ArchiveSearchPath, gotPath)
		assert.Equal(t, "abc", gotToken)
		assert.Empty(t, res.Page.NextToken)
		assert.Empty(t, res.Page.Tweets)
	})

	t.Run("StructuredErrorBody", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{
				"title": "Invalid Request",
				"detail": "One or more parameters to your request was invalid.",
				"errors": [{"message": "no viable alternative"}]
			}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "tok", 5*time.Second, nil)
		res, err := client.SearchPage(context.Background(), testParams(), "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Nil(t, res.Page)
		require.NotNil(t, res.APIError)
		assert.Equal(t, "Invalid Request", res.APIError.Title)
		assert.Contains(t, res.APIError.Render(), "no viable alternative")
	})

	t.Run("RateLimitHeadersOnError", func(t *testing.T) {
		reset := time.Now().Add(3 * time.Second).Unix()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("x-rate-limit-remaining", "0")
			w.Header().Set("x-rate-limit-reset", strconv.FormatInt(reset, 10))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"title": "Too Many Requests"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "tok", 5*time.Second, nil)
		res, err := client.SearchPage(context.Background(), testParams(), "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusTooManyRequests, res.Status)
		assert.Equal(t, 0, res.RateLimit.Remaining)
		assert.Equal(t, time.Unix(reset, 0), res.RateLimit.Reset)
	})

	t.Run("NetworkError", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "tok", time.Second, nil)
		_, err := client.SearchPage(context.Background(), testParams(), "")
		assert.Error(t, err)
	})
}
