package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/fetch"
)

func TestRedditSource_HotWithClientCredentials(t *testing.T) {
	const ua = "linux:nsg-weather-bot:v1.0 (by /u/tester)"
	var tokenCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		require.Equal(t, ua, r.Header.Get("User-Agent"))
		id, secret, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "id", id)
		require.Equal(t, "secret", secret)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/r/IndianDankMemes/hot", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, ua, r.Header.Get("User-Agent"))
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		require.Equal(t, "1", r.URL.Query().Get("raw_json"))

		_, _ = w.Write([]byte(`{"data": {"children": [
			{"data": {"name": "t3_a", "title": "chai", "url": "https://i.redd.it/a.jpg", "score": 120, "over_18": false, "stickied": true}},
			{"data": {"name": "t3_b", "title": "", "url": "https://v.redd.it/b", "score": 90, "is_video": true}},
			{"data": {"title": "no id"}}
		]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewRedditClient(context.Background(), &http.Client{Timeout: 5 * time.Second}, RedditCredentials{
		ClientID:     "id",
		ClientSecret: "secret",
		UserAgent:    ua,
		TokenURL:     srv.URL + "/token",
	})
	gw := fetch.New(client, fetch.Config{JSONTimeout: 2 * time.Second})
	src := NewRedditSource(gw, WithRedditBaseURL(srv.URL+"/"))

	pools := src.Pools([]string{"r/IndianDankMemes", " ", "desimemes"})
	require.Len(t, pools, 2)
	require.Equal(t, "r/IndianDankMemes", pools[0].Name())

	items, err := pools[0].Hot(context.Background(), ListingLimit)
	require.NoError(t, err)
	require.Equal(t, []Item{
		{ID: "t3_a", Title: "chai", URL: "https://i.redd.it/a.jpg", Score: 120, Stickied: true},
		{ID: "t3_b", URL: "https://v.redd.it/b", Score: 90, IsVideo: true},
	}, items)

	_, err = pools[0].Hot(context.Background(), ListingLimit)
	require.NoError(t, err)
	require.Equal(t, 1, tokenCalls, "token is reused until it expires")

	_, err = pools[1].Hot(context.Background(), ListingLimit)
	require.ErrorIs(t, err, ErrPoolUnavailable)
}

func TestRedditCredentials_Complete(t *testing.T) {
	require.False(t, RedditCredentials{ClientID: "id", ClientSecret: "s"}.Complete())
	require.True(t, RedditCredentials{ClientID: "id", ClientSecret: "s", UserAgent: "ua"}.Complete())
}
