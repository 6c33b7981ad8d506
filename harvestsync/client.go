package harvestsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// singlePageLimit is the page size sent on every list call. Clients and
// projects are fetched as one page of this size: accounts synced here stay
// well under a hundred of either. Invoices grow without bound and paginate.
const singlePageLimit = 100

const userAgent = "Craftsight Commissions (support@craftsight.dev)"

// APIError is a non-2xx response from the Harvest API. The body is kept
// verbatim so handlers can surface Harvest's own error message.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("harvest api error %d: %s", e.StatusCode, e.Body)
}

type harvestClient struct {
	baseURL     string
	accountId   string
	accessToken string
	http        *http.Client
}

func newHarvestClient(accountId string, accessToken string) (*harvestClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("HARVEST_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.harvestapp.com/v2"
	}
	if strings.TrimSpace(accountId) == "" {
		return nil, errors.New("harvest account id is empty")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("harvest access token is empty")
	}
	return &harvestClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accountId:   accountId,
		accessToken: accessToken,
		http:        &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *harvestClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Harvest-Account-Id", c.accountId)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	return decoder.Decode(out)
}

// Probe verifies the credential pair against /users/me without touching any
// billing data.
func (c *harvestClient) Probe(ctx context.Context) error {
	return c.get(ctx, "/users/me", nil, nil)
}

func (c *harvestClient) ListClients(ctx context.Context) ([]RemoteClient, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(singlePageLimit))
	var parsed clientListResponse
	if err := c.get(ctx, "/clients", params, &parsed); err != nil {
		return nil, err
	}
	return parsed.Clients, nil
}

func (c *harvestClient) ListProjects(ctx context.Context) ([]RemoteProject, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(singlePageLimit))
	var parsed projectListResponse
	if err := c.get(ctx, "/projects", params, &parsed); err != nil {
		return nil, err
	}
	return parsed.Projects, nil
}

func (c *harvestClient) listInvoicePage(ctx context.Context, page int) (invoiceListResponse, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(singlePageLimit))
	params.Set("page", strconv.Itoa(page))
	var parsed invoiceListResponse
	if err := c.get(ctx, "/invoices", params, &parsed); err != nil {
		return invoiceListResponse{}, err
	}
	return parsed, nil
}

// ListAllInvoices walks every invoice page. total_pages from each response
// drives the loop, so a collection that grows mid-walk is still covered.
func (c *harvestClient) ListAllInvoices(ctx context.Context) ([]RemoteInvoice, error) {
	var all []RemoteInvoice
	page := 1
	totalPages := 1
	for page <= totalPages {
		parsed, err := c.listInvoicePage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, parsed.Invoices...)
		if parsed.TotalPages > 0 {
			totalPages = parsed.TotalPages
		}
		page++
	}
	return all, nil
}
