package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/fetch"
)

// UnsplashProvider implements weather.ImageSearcher for landscape photos.
type UnsplashProvider struct {
	accessKey string
	baseURL   string
	gw        *fetch.Gateway
}

func NewUnsplashProvider(gw *fetch.Gateway, accessKey string, opts ...Option) *UnsplashProvider {
	o := buildOptions("https://api.unsplash.com", opts)
	return &UnsplashProvider{
		accessKey: accessKey,
		baseURL:   o.baseURL,
		gw:        gw,
	}
}

type unsplashSearch struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns the "regular" URLs of one result page. An empty page is
// reported as unavailable.
func (p *UnsplashProvider) Search(ctx context.Context, query string, page int) ([]string, bool) {
	if page < 1 {
		page = 1
	}

	values := url.Values{}
	values.Set("query", query)
	values.Set("per_page", "30")
	values.Set("orientation", "landscape")
	values.Set("page", strconv.Itoa(page))

	u := fmt.Sprintf("%s/search/photos?%s", p.baseURL, values.Encode())
	headers := map[string]string{
		"Authorization":  "Client-ID " + p.accessKey,
		"Accept-Version": "v1",
	}

	payload, ok := fetch.GetJSON[unsplashSearch](ctx, p.gw, u, headers)
	if !ok {
		return nil, false
	}

	urls := make([]string, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}
	if len(urls) == 0 {
		return nil, false
	}
	return urls, true
}
