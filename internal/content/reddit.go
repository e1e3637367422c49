package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/fetch"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL   = "https://oauth.reddit.com"
)

// ErrPoolUnavailable is returned when a listing cannot be fetched.
var ErrPoolUnavailable = errors.New("pool listing unavailable")

// RedditCredentials are the script-app credentials of the bot account.
type RedditCredentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	// TokenURL defaults to the public token endpoint.
	TokenURL string
}

// Complete reports whether the app-only OAuth flow can run.
func (c RedditCredentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.UserAgent != ""
}

// NewRedditClient returns a client that authenticates with the application-only
// client credentials grant and tags every request, token exchange included,
// with the configured User-Agent. It reuses base's transport so idle
// connections stay in one pool.
func NewRedditClient(ctx context.Context, base *http.Client, creds RedditCredentials) *http.Client {
	var rt http.RoundTripper
	if base != nil {
		rt = base.Transport
	}

	tagged := &http.Client{Transport: &userAgentTransport{ua: creds.UserAgent, base: rt}}
	if base != nil {
		tagged.Timeout = base.Timeout
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = redditTokenURL
	}

	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return cfg.Client(context.WithValue(ctx, oauth2.HTTPClient, tagged))
}

type userAgentTransport struct {
	ua   string
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.ua == "" {
		return base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.ua)
	return base.RoundTrip(req)
}

// RedditSource lists hot posts of subreddits through an authenticated gateway.
type RedditSource struct {
	gw      *fetch.Gateway
	baseURL string
}

// RedditOption customizes a RedditSource.
type RedditOption func(*RedditSource)

// WithRedditBaseURL overrides the API root, mainly for tests.
func WithRedditBaseURL(u string) RedditOption {
	return func(r *RedditSource) {
		r.baseURL = strings.TrimRight(u, "/")
	}
}

// NewRedditSource creates a RedditSource. gw should wrap a client from
// NewRedditClient.
func NewRedditSource(gw *fetch.Gateway, opts ...RedditOption) *RedditSource {
	r := &RedditSource{gw: gw, baseURL: redditAPIURL}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pools returns one Pool per subreddit name.
func (r *RedditSource) Pools(subreddits []string) []Pool {
	pools := make([]Pool, 0, len(subreddits))
	for _, name := range subreddits {
		name = strings.TrimPrefix(strings.TrimSpace(name), "r/")
		if name == "" {
			continue
		}
		pools = append(pools, &subreddit{src: r, name: name})
	}
	return pools
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Name     string `json:"name"`
				Title    string `json:"title"`
				URL      string `json:"url"`
				Score    int    `json:"score"`
				Over18   bool   `json:"over_18"`
				Stickied bool   `json:"stickied"`
				IsVideo  bool   `json:"is_video"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type subreddit struct {
	src  *RedditSource
	name string
}

func (s *subreddit) Name() string { return "r/" + s.name }

func (s *subreddit) Hot(ctx context.Context, limit int) ([]Item, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("raw_json", "1")

	endpoint := fmt.Sprintf("%s/r/%s/hot?%s", s.src.baseURL, url.PathEscape(s.name), q.Encode())

	payload, ok := fetch.GetJSON[listing](ctx, s.src.gw, endpoint, nil)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolUnavailable, s.Name())
	}

	items := make([]Item, 0, len(payload.Data.Children))
	for _, c := range payload.Data.Children {
		d := c.Data
		if d.Name == "" {
			continue
		}
		items = append(items, Item{
			ID:       d.Name,
			Title:    d.Title,
			URL:      d.URL,
			Score:    d.Score,
			Over18:   d.Over18,
			Stickied: d.Stickied,
			IsVideo:  d.IsVideo,
		})
	}
	return items, nil
}
