// Package worldbank is a client for the World Bank indicators API (v2).
package worldbank

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jacobfeldgoise/country-comparison/internal/fetcher"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.worldbank.org/v2"

// Client fetches country metadata and indicator observations.
type Client interface {
	// Countries returns every country and aggregate known to the API.
	Countries(ctx context.Context) ([]Country, error)

	// Indicator returns the most recent observations of one indicator for all countries.
	Indicator(ctx context.Context, code string) (*IndicatorData, error)
}

// Country is one entry of the country metadata list.
type Country struct {
	ISO3      string `json:"iso3"`
	ISO2      string `json:"iso2,omitempty"`
	Name      string `json:"name"`
	Region    string `json:"region,omitempty"`
	Aggregate bool   `json:"aggregate,omitempty"`
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the API root.
func WithBaseURL(base string) Option {
	return func(c *client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithFetcher sets the transport used for requests.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *client) {
		c.fetcher = f
	}
}

// WithPerPage sets the page size for indicator requests.
func WithPerPage(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithCountryPerPage sets the page size for the country list request.
func WithCountryPerPage(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.countryPerPage = n
		}
	}
}

// WithMRV sets how many of the most recent yearly values are requested per country.
func WithMRV(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.mrv = n
		}
	}
}

type client struct {
	baseURL        string
	fetcher        fetcher.Fetcher
	perPage        int
	countryPerPage int
	mrv            int
}

// NewClient creates a World Bank Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		baseURL:        DefaultBaseURL,
		perPage:        20000,
		countryPerPage: 400,
		mrv:            10,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	}
	return c
}

// pagination is the first element of every response. The API encodes some
// fields as strings and others as numbers depending on the endpoint.
type pagination struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"per_page"`
	Total   flexInt `json:"total"`
}

type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return eris.Wrapf(err, "worldbank: parse integer %q", s)
	}
	*f = flexInt(n)
	return nil
}

type apiMessage struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// getPage fetches one page and splits it into pagination info and the raw record list.
func (c *client) getPage(ctx context.Context, rawURL string) (*pagination, json.RawMessage, error) {
	parts, err := fetcher.GetJSON[[]json.RawMessage](ctx, c.fetcher, rawURL)
	if err != nil {
		return nil, nil, err
	}

	if len(*parts) < 2 {
		return nil, nil, apiError(*parts)
	}

	var p pagination
	if err := json.Unmarshal((*parts)[0], &p); err != nil {
		return nil, nil, eris.Wrap(err, "worldbank: parse pagination")
	}
	return &p, (*parts)[1], nil
}

// apiError turns the single-element error payload into an error.
func apiError(parts []json.RawMessage) error {
	if len(parts) == 1 {
		var payload struct {
			Message []apiMessage `json:"message"`
		}
		if err := json.Unmarshal(parts[0], &payload); err == nil && len(payload.Message) > 0 {
			m := payload.Message[0]
			return eris.Errorf("worldbank: api error %s: %s %s", m.ID, m.Key, strings.TrimSpace(m.Value))
		}
	}
	return eris.Errorf("worldbank: unexpected response with %d elements", len(parts))
}

// getAll follows pagination and returns every page's record list.
func (c *client) getAll(ctx context.Context, base string, params url.Values) ([]json.RawMessage, error) {
	first, records, err := c.getPage(ctx, base+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	pages := []json.RawMessage{records}

	for page := 2; page <= int(first.Pages); page++ {
		params.Set("page", strconv.Itoa(page))
		_, recs, err := c.getPage(ctx, base+"?"+params.Encode())
		if err != nil {
			return nil, eris.Wrapf(err, "worldbank: page %d", page)
		}
		pages = append(pages, recs)
	}
	return pages, nil
}

type countryRecord struct {
	ID       string `json:"id"`
	ISO2Code string `json:"iso2Code"`
	Name     string `json:"name"`
	Region   struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"region"`
}

// Countries returns the country metadata list. Aggregates (regions, income
// groups) are included and flagged.
func (c *client) Countries(ctx context.Context) ([]Country, error) {
	params := url.Values{
		"format":   {"json"},
		"per_page": {strconv.Itoa(c.countryPerPage)},
	}
	pages, err := c.getAll(ctx, c.baseURL+"/country", params)
	if err != nil {
		return nil, eris.Wrap(err, "worldbank: countries")
	}

	var out []Country
	for _, page := range pages {
		var recs []countryRecord
		if err := json.Unmarshal(page, &recs); err != nil {
			return nil, eris.Wrap(err, "worldbank: parse countries")
		}
		for _, r := range recs {
			iso3 := strings.ToUpper(strings.TrimSpace(r.ID))
			if len(iso3) != 3 {
				continue
			}
			region := strings.TrimSpace(r.Region.Value)
			out = append(out, Country{
				ISO3:      iso3,
				ISO2:      strings.ToUpper(strings.TrimSpace(r.ISO2Code)),
				Name:      strings.TrimSpace(r.Name),
				Region:    region,
				Aggregate: r.Region.ID == "NA" || region == "Aggregates",
			})
		}
	}

	zap.L().Debug("worldbank: fetched countries", zap.Int("count", len(out)))
	return out, nil
}

// Indicator fetches the most recent observations for code and reduces them.
func (c *client) Indicator(ctx context.Context, code string) (*IndicatorData, error) {
	if strings.TrimSpace(code) == "" {
		return nil, eris.New("worldbank: empty indicator code")
	}
	params := url.Values{
		"format":   {"json"},
		"per_page": {strconv.Itoa(c.perPage)},
		"MRV":      {strconv.Itoa(c.mrv)},
	}
	base := c.baseURL + "/country/all/indicator/" + url.PathEscape(code)

	pages, err := c.getAll(ctx, base, params)
	if err != nil {
		return nil, eris.Wrapf(err, "worldbank: indicator %s", code)
	}

	var obs []Record
	for _, page := range pages {
		var recs []Record
		// A page with no data is encoded as null.
		if err := json.Unmarshal(page, &recs); err != nil {
			return nil, eris.Wrapf(err, "worldbank: parse indicator %s", code)
		}
		obs = append(obs, recs...)
	}

	data := Reduce(code, obs)
	zap.L().Debug("worldbank: fetched indicator",
		zap.String("indicator", code),
		zap.Int("observations", len(obs)),
		zap.Int("countries", len(data.Latest)),
	)
	return data, nil
}
