package customer

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("customer not found")

	// ErrHasActiveLoans rejects deletion of a customer that still owns
	// active loans. Inactive loans are removed together with the customer.
	ErrHasActiveLoans = errors.New("customer has active loans")
)

type Repository interface {
	// Save inserts the customer when CustomerID is zero, otherwise updates it.
	Save(ctx context.Context, cust *Customer) error

	// SaveWithID inserts the customer keeping its externally assigned ID.
	// Used by the batch importer, which preserves source record IDs.
	SaveWithID(ctx context.Context, cust *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	ExistsByID(ctx context.Context, customerID int64) (bool, error)

	// Delete removes the customer and its inactive loans. It fails with
	// ErrHasActiveLoans while any owned loan is still active.
	Delete(ctx context.Context, customerID int64) error

	UpdateCurrentDebt(ctx context.Context, customerID int64, debt decimal.Decimal) error
}
