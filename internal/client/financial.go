package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/resaledesk/internal/model"
)

// ListFinancial returns every financial record.
func (c *Client) ListFinancial(ctx context.Context) ([]model.FinancialRecord, error) {
	var records []model.FinancialRecord
	if err := c.do(ctx, http.MethodGet, "/financial", nil, &records); err != nil {
		return nil, fmt.Errorf("listing financial records: %w", err)
	}
	if records == nil {
		records = []model.FinancialRecord{}
	}
	return records, nil
}

// DeleteFinancialRecord removes the record with the given transaction ID.
func (c *Client) DeleteFinancialRecord(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/financial/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting financial record %s: %w", id, err)
	}
	return nil
}
