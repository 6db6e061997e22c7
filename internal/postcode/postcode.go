// internal/postcode/postcode.go
//
// Australian postcode → suburb validation.
//
// Context
// -------
// The calculator's address step validates postcodes server-side.  With an
// API key configured, lookups go to the external postcode service; without
// one, or on lookup failure, a hard-coded table of high-traffic postcodes
// answers instead.  Either way the route returns a (possibly empty) suburb
// list — an unknown postcode is an empty list, never an error.
//
// Concurrent lookups for the same postcode collapse into one upstream
// call via singleflight, and results sit in a small LRU so repeated form
// edits do not re-query the provider.
//
//------------------------------------------------------------------------------

package postcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/propcost/internal/cache"
)

// Suburb is one locality attached to a postcode.
type Suburb struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

var postcodeRe = regexp.MustCompile(`^\d{4}$`)

// IsWellFormed gates lookups: Australian postcodes are exactly four
// digits.
func IsWellFormed(code string) bool { return postcodeRe.MatchString(code) }

// Validator answers suburb lookups.  Safe for concurrent use.
type Validator struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client

	group singleflight.Group
	cache *cache.LRU
}

// New builds a Validator.  Empty apiKey switches it to fallback-only mode.
func New(apiKey, endpoint string) *Validator {
	if endpoint == "" {
		endpoint = "https://digitalapi.auspost.com.au/postcode/search.json"
	}
	return &Validator{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New(512),
	}
}

// Lookup returns the suburbs for a well-formed postcode.  Unknown codes
// return an empty slice.  Malformed codes are the caller's 400, checked
// with IsWellFormed before calling.
func (v *Validator) Lookup(ctx context.Context, code string) ([]Suburb, error) {
	if !IsWellFormed(code) {
		return nil, fmt.Errorf("postcode %q is not four digits", code)
	}

	if hit, ok := v.cache.Get(code); ok {
		return hit.([]Suburb), nil
	}

	out, err, _ := v.group.Do(code, func() (any, error) {
		subs := v.resolve(ctx, code)
		v.cache.Add(code, subs)
		return subs, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]Suburb), nil
}

// resolve tries the external API first, then the built-in table.  API
// failures fall back silently; the table is the availability floor.
func (v *Validator) resolve(ctx context.Context, code string) []Suburb {
	if v.apiKey != "" {
		if subs, err := v.queryAPI(ctx, code); err == nil {
			return subs
		}
	}
	return fallbackTable[code]
}

// queryAPI hits the postcode service.  The response nests localities two
// levels deep and collapses single results from array to object, so both
// shapes are decoded.
func (v *Validator) queryAPI(ctx context.Context, code string) ([]Suburb, error) {
	q := url.Values{}
	q.Set("q", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("auth-key", v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postcode api status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Localities struct {
			Locality json.RawMessage `json:"locality"`
		} `json:"localities"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Localities.Locality) == 0 {
		return []Suburb{}, nil
	}

	type locality struct {
		Location string `json:"location"`
		State    string `json:"state"`
	}

	var list []locality
	if err := json.Unmarshal(payload.Localities.Locality, &list); err != nil {
		var single locality
		if err := json.Unmarshal(payload.Localities.Locality, &single); err != nil {
			return nil, err
		}
		list = []locality{single}
	}

	subs := make([]Suburb, 0, len(list))
	for _, l := range list {
		subs = append(subs, Suburb{Name: l.Location, State: l.State})
	}
	return subs, nil
}
