package harvestsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *harvestClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("HARVEST_API_BASE_URL", server.URL)
	client, err := newHarvestClient("998877", "top-secret-token")
	if err != nil {
		t.Fatalf("newHarvestClient: %v", err)
	}
	return client
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotAccount, gotAgent string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.Header.Get("Harvest-Account-Id")
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if gotAuth != "Bearer top-secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccount != "998877" {
		t.Errorf("Harvest-Account-Id = %q", gotAccount)
	}
	if gotAgent != userAgent {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestClientRejectsEmptyCredentials(t *testing.T) {
	if _, err := newHarvestClient("", "token"); err == nil {
		t.Error("expected error for empty account id")
	}
	if _, err := newHarvestClient("123", "  "); err == nil {
		t.Error("expected error for empty access token")
	}
}

func TestProbeSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_token"}`)
	}))

	err := client.Probe(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Body != `{"error":"invalid_token"}` {
		t.Errorf("Body = %q", apiErr.Body)
	}
}

func TestListAllInvoicesWalksEveryPage(t *testing.T) {
	var pagesRequested []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invoices" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q", got)
		}
		page := r.URL.Query().Get("page")
		pagesRequested = append(pagesRequested, page)

		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			fmt.Fprint(w, invoicePagePayload(1, 2, 100))
		case "2":
			fmt.Fprint(w, invoicePagePayload(2, 2, 50))
		default:
			t.Errorf("unexpected page %q", page)
		}
	}))

	invoices, err := client.ListAllInvoices(context.Background())
	if err != nil {
		t.Fatalf("ListAllInvoices: %v", err)
	}
	if len(invoices) != 150 {
		t.Errorf("got %d invoices, want 150", len(invoices))
	}
	if len(pagesRequested) != 2 || pagesRequested[0] != "1" || pagesRequested[1] != "2" {
		t.Errorf("pages requested = %v, want [1 2]", pagesRequested)
	}
}

func TestListAllInvoicesStopsOnPageError(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, invoicePagePayload(1, 3, 10))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))

	_, err := client.ListAllInvoices(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (no retry past the failing page)", calls)
	}
}

func TestListClientsSinglePage(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"clients":[{"id":11,"name":"Acme","is_active":true},{"id":12,"name":"Globex","is_active":false}]}`)
	}))

	clients, err := client.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(clients) != 2 || clients[0].Name != "Acme" || clients[1].ID != 12 {
		t.Errorf("unexpected clients: %+v", clients)
	}
}

func invoicePagePayload(page, totalPages, count int) string {
	payload := `{"invoices":[`
	for i := 0; i < count; i++ {
		if i > 0 {
			payload += ","
		}
		id := page*1000 + i
		payload += fmt.Sprintf(`{"id":%d,"client":{"id":7,"name":"Acme"},"number":"INV-%d","issue_date":"2026-01-15","state":"open","amount":100.5,"paid_amount":0}`, id, id)
	}
	payload += fmt.Sprintf(`],"page":%d,"total_pages":%d}`, page, totalPages)
	return payload
}
