package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Client обогащает сообщение пользователя результатами Google Search и
// Google Maps. Неконфигурированные ключи и ошибки API не роняют отправку:
// наружу уходит поясняющая строка, как делал исходный обработчик чата.
type Client struct {
	searchKey      string
	searchEngineID string
	mapsKey        string
	httpClient     *http.Client
	mapsBaseURL    string
}

func NewClient(searchKey, searchEngineID, mapsKey string) *Client {
	return &Client{
		searchKey:      searchKey,
		searchEngineID: searchEngineID,
		mapsKey:        mapsKey,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		mapsBaseURL:    "https://maps.googleapis.com/maps/api/place/textsearch/json",
	}
}

func (c *Client) Web(ctx context.Context, query string) string {
	if c.searchKey == "" || c.searchEngineID == "" {
		return "Google Search API not configured"
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(c.searchKey))
	if err != nil {
		logrus.Warnf("Не удалось создать клиент Custom Search: %v", err)
		return fmt.Sprintf("Search error: %v", err)
	}

	resp, err := svc.Cse.List().Context(ctx).Cx(c.searchEngineID).Q(query).Num(5).Do()
	if err != nil {
		logrus.Warnf("Запрос к Custom Search не удался: %v", err)
		return fmt.Sprintf("Search error: %v", err)
	}

	items := resp.Items
	if len(items) > 3 {
		items = items[:3]
	}
	if len(items) == 0 {
		return "No search results found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:", query)
	for _, item := range items {
		fmt.Fprintf(&b, "\n• %s: %s", item.Title, item.Snippet)
	}
	return b.String()
}

type placesResponse struct {
	Results []struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
	} `json:"results"`
}

func (c *Client) Places(ctx context.Context, query string) string {
	if c.mapsKey == "" {
		return "Google Maps API not configured"
	}

	reqURL := fmt.Sprintf("%s?query=%s&key=%s", c.mapsBaseURL, url.QueryEscape(query), c.mapsKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Sprintf("Maps error: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Warnf("Запрос к Places API не удался: %v", err)
		return fmt.Sprintf("Maps error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Maps error: status %d", resp.StatusCode)
	}

	var data placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Sprintf("Maps error: %v", err)
	}

	results := data.Results
	if len(results) > 3 {
		results = results[:3]
	}
	if len(results) == 0 {
		return "No places found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Places found for %q:", query)
	for _, r := range results {
		rating := "N/A"
		if r.Rating > 0 {
			rating = fmt.Sprintf("%.1f", r.Rating)
		}
		fmt.Fprintf(&b, "\n• %s - %s (Rating: %s)", r.Name, r.FormattedAddress, rating)
	}
	return b.String()
}
