package harvestsync

import "encoding/json"

// Wire shapes for the Harvest v2 API. Monetary values arrive as JSON
// numbers and are decoded through json.Number so no float rounding
// happens before they reach decimal.
type remoteRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RemoteClient struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type RemoteProject struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
	Client   remoteRef `json:"client"`
}

type RemoteInvoice struct {
	ID         int64       `json:"id"`
	Client     remoteRef   `json:"client"`
	Number     string      `json:"number"`
	IssueDate  string      `json:"issue_date"`
	DueDate    string      `json:"due_date"`
	State      string      `json:"state"`
	Amount     json.Number `json:"amount"`
	PaidAmount json.Number `json:"paid_amount"`
	PaidDate   string      `json:"paid_date"`
}

type clientListResponse struct {
	Clients []RemoteClient `json:"clients"`
}

type projectListResponse struct {
	Projects []RemoteProject `json:"projects"`
}

type invoiceListResponse struct {
	Invoices   []RemoteInvoice `json:"invoices"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

// SyncStats counts rows written by one reconciliation pass. Name updates on
// already-mirrored clients and projects are not counted.
type SyncStats struct {
	ClientsCreated  int `json:"clientsCreated"`
	ProjectsCreated int `json:"projectsCreated"`
	InvoicesCreated int `json:"invoicesCreated"`
	InvoicesUpdated int `json:"invoicesUpdated"`
}

// SyncResult carries either Stats (success) or Error (failure), never both.
// A failed pass reports no partial stats even though rows written before the
// failure stay persisted.
type SyncResult struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Stats   *SyncStats `json:"stats,omitempty"`
}

type ConnectRequest struct {
	AccountId   string `json:"accountId" binding:"required"`
	AccessToken string `json:"accessToken" binding:"required"`
}

type ConnectionResponse struct {
	AccountId  string  `json:"accountId"`
	LastSyncAt *string `json:"lastSyncAt"`
	CreatedAt  string  `json:"createdAt"`
}
