package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/depotctl/depotctl/internal/domain"
)

// Inventory lists all tracked stock records
func (c *Client) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	if err := c.doJSON(ctx, http.MethodGet, "/inventory", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateInventoryItem adds a stock record
func (c *Client) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	return c.doJSON(ctx, http.MethodPost, "/inventory", nil, item, nil)
}

// UpdateInventoryItem replaces a stock record
func (c *Client) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	path := "/inventory/" + strconv.FormatInt(item.ID, 10)
	return c.doJSON(ctx, http.MethodPut, path, nil, item, nil)
}

// DeleteInventoryItem removes a stock record
func (c *Client) DeleteInventoryItem(ctx context.Context, id int64) error {
	path := "/inventory/" + strconv.FormatInt(id, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// AuditLogs lists the backend audit trail
func (c *Client) AuditLogs(ctx context.Context) ([]domain.AuditRecord, error) {
	var records []domain.AuditRecord
	if err := c.doJSON(ctx, http.MethodGet, "/auditlogs", nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Activities lists the recent-activity feed
func (c *Client) Activities(ctx context.Context) ([]domain.Activity, error) {
	var activities []domain.Activity
	if err := c.doJSON(ctx, http.MethodGet, "/activities", nil, nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
