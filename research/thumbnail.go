package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
)

const DefaultSummaryEndpoint = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// Thumbnails looks up the Wikipedia lead image for a topic. Lookups, hits and
// misses alike, are cached by topic.
type Thumbnails struct {
	client   *http.Client
	endpoint string
	cache    *lru.Cache[string, string]
}

func NewThumbnails(client *http.Client, endpoint string, cacheSize int) (*Thumbnails, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if endpoint == "" {
		endpoint = DefaultSummaryEndpoint
	}
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Thumbnails{client: client, endpoint: endpoint, cache: cache}, nil
}

// Lookup returns the thumbnail URL or "" when the page has none.
func (t *Thumbnails) Lookup(ctx context.Context, topic string) (string, error) {
	key := strings.TrimSpace(topic)
	if key == "" {
		return "", nil
	}
	if src, ok := t.cache.Get(key); ok {
		return src, nil
	}

	title := url.PathEscape(strings.ReplaceAll(key, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+title, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		t.cache.Add(key, "")
		return "", nil
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("summary lookup failed, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	src := gjson.GetBytes(body, "thumbnail.source").String()
	t.cache.Add(key, src)
	return src, nil
}
