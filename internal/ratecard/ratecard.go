// Package ratecard supplies the hourly rates offered as suggestions when an
// hourly rate is entered. Rates come from a remote catalog when one is
// configured and fall back to the built-in list otherwise.
package ratecard

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"budget-engine/internal/model"
)

// DefaultRates are the known hourly rates in CHF.
var DefaultRates = []string{"55", "69", "87", "89", "103", "117"}

const DefaultTimeout = 2 * time.Second

type Catalog struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	cache   sync.Map // model.Role -> []string
}

type catalogResponse struct {
	Role  string `json:"role"`
	Rates []int  `json:"rates"`
}

// New returns a catalog backed by baseURL. An empty baseURL always yields
// DefaultRates.
func New(baseURL string, timeout time.Duration) *Catalog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Catalog{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
	if c.baseURL != "" {
		c.client = &fasthttp.Client{
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		}
	}
	return c
}

func defaults() []string {
	return append([]string(nil), DefaultRates...)
}

// Rates returns the suggested rates for each role. Cached roles are served
// from memory; the rest are fetched concurrently.
func (c *Catalog) Rates(roles ...model.Role) map[model.Role][]string {
	result := make(map[model.Role][]string, len(roles))

	if c.baseURL == "" {
		for _, r := range roles {
			result[r] = defaults()
		}
		return result
	}

	var toFetch []model.Role
	for _, r := range roles {
		if rates, ok := c.cache.Load(r); ok {
			result[r] = append([]string(nil), rates.([]string)...)
		} else {
			toFetch = append(toFetch, r)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, r := range toFetch {
		wg.Add(1)
		go func(role model.Role) {
			defer wg.Done()
			rates, ok := c.fetch(role)
			if ok {
				c.cache.Store(role, rates)
			}
			mu.Lock()
			result[role] = append([]string(nil), rates...)
			mu.Unlock()
		}(r)
	}
	wg.Wait()

	return result
}

// Known returns the union of the rates for every known role, ascending.
func (c *Catalog) Known() []string {
	seen := map[int]bool{}
	for _, rates := range c.Rates(model.Roles...) {
		for _, r := range rates {
			if v, err := strconv.Atoi(r); err == nil {
				seen[v] = true
			}
		}
	}
	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// fetch reports ok=false when the defaults were used, so failures are
// retried on the next call instead of being cached.
func (c *Catalog) fetch(role model.Role) ([]string, bool) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/rates/" + url.PathEscape(string(role)))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		return defaults(), false
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return defaults(), false
	}

	var cr catalogResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return defaults(), false
	}
	var rates []string
	for _, r := range cr.Rates {
		if r > 0 {
			rates = append(rates, strconv.Itoa(r))
		}
	}
	if len(rates) == 0 {
		return defaults(), false
	}
	return rates, true
}
