package environment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HolidayFetcher fetches the calendar table environment.Cache consults for
// the "Holiday" tag. The concrete transport the real holiday provider speaks
// is out of scope; this repo only defines the contract and a straightforward
// HTTP client against a {days:[{date,isOffDay}]} shape.
type HolidayFetcher interface {
	FetchHolidays(ctx context.Context) (map[string]bool, error)
}

// HTTPHolidayFetcher calls a configured holiday API URL. An empty URL is a
// valid no-op configuration: FetchHolidays returns an empty table rather
// than an error, since the fetch is explicitly best-effort.
type HTTPHolidayFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPHolidayFetcher returns a fetcher with a bounded request timeout.
func NewHTTPHolidayFetcher(url string) *HTTPHolidayFetcher {
	return &HTTPHolidayFetcher{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type holidayAPIResponse struct {
	Days []holidayAPIItem `json:"days"`
}

type holidayAPIItem struct {
	Date     string `json:"date"`
	IsOffDay bool   `json:"isOffDay"`
}

// FetchHolidays returns an empty map (not an error) when URL is unset.
func (f *HTTPHolidayFetcher) FetchHolidays(ctx context.Context) (map[string]bool, error) {
	if f.URL == "" {
		return map[string]bool{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build holiday request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API returned status %d", resp.StatusCode)
	}

	var parsed holidayAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode holiday response: %w", err)
	}

	out := make(map[string]bool, len(parsed.Days))
	for _, d := range parsed.Days {
		out[d.Date] = d.IsOffDay
	}
	return out, nil
}
