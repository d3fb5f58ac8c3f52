package trade

import (
	"fmt"
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidLineItem is the sentinel for malformed line item input
var ErrInvalidLineItem = shared.NewDomainError("INVALID_LINE_ITEM", "Invalid line item")

// MaxItemDescriptionLength bounds a line item description
const MaxItemDescriptionLength = 300

// LineItemInput is one row of raw line item fields as submitted
type LineItemInput struct {
	Description string
	Quantity    string
	UnitPrice   string
	ProductID   string
}

// LineItemDraft is a parsed line item ready to be placed on an invoice
type LineItemDraft struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	ProductID   *uuid.UUID
}

// ZipLineItemInputs combines parallel field lists into rows.
// The description list decides the row count; shorter lists count as empty.
func ZipLineItemInputs(descriptions, quantities, unitPrices, productIDs []string) []LineItemInput {
	at := func(list []string, i int) string {
		if i < len(list) {
			return list[i]
		}
		return ""
	}

	rows := make([]LineItemInput, len(descriptions))
	for i, desc := range descriptions {
		rows[i] = LineItemInput{
			Description: desc,
			Quantity:    at(quantities, i),
			UnitPrice:   at(unitPrices, i),
			ProductID:   at(productIDs, i),
		}
	}
	return rows
}

// BuildLineItems parses rows into drafts.
// Rows with a blank description are skipped. A blank quantity means 1 and a
// blank price means 0; any other value that does not parse fails the row.
// Negative values are accepted.
func BuildLineItems(rows []LineItemInput) ([]LineItemDraft, error) {
	drafts := make([]LineItemDraft, 0, len(rows))
	for i, row := range rows {
		desc := strings.TrimSpace(row.Description)
		if desc == "" {
			continue
		}
		if len(desc) > MaxItemDescriptionLength {
			return nil, lineItemError(i, "description", fmt.Errorf("exceeds %d characters", MaxItemDescriptionLength))
		}

		qty, err := valueobject.ParseDecimalOr(row.Quantity, decimal.NewFromInt(1))
		if err != nil {
			return nil, lineItemError(i, "quantity", err)
		}
		price, err := valueobject.ParseDecimalOr(row.UnitPrice, decimal.Zero)
		if err != nil {
			return nil, lineItemError(i, "unit price", err)
		}

		draft := LineItemDraft{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
		}
		if raw := strings.TrimSpace(row.ProductID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, lineItemError(i, "product", fmt.Errorf("%q is not a valid product id", raw))
			}
			draft.ProductID = &id
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// lineItemError names the 1-based row and the field that failed
func lineItemError(index int, field string, cause error) error {
	return shared.NewDomainError(
		ErrInvalidLineItem.Code,
		fmt.Sprintf("Line item %d: %s %s", index+1, field, cause.Error()),
	)
}
