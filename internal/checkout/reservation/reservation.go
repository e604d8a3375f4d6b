package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

// Request asks for qty units of one product to be taken off the shelf.
type Request struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserve decrements stock for every request inside the caller's transaction.
// The decrement is a single conditional UPDATE, so two concurrent orders can
// never both take the last unit. Any failed line returns an error and the
// caller's rollback restores every prior decrement.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Request) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": req.ProductID.String()})
		}

		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET count = count - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND count >= ?
		`, req.Qty, req.ProductID, req.Qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}
		if res.RowsAffected > 0 {
			continue
		}

		// Zero rows: either the product is gone or the shelf is short.
		var product models.Product
		err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", req.ProductID)).
					WithDetails(map[string]any{"product_id": req.ProductID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product after failed reservation")
		}
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for product %s", req.ProductID)).
			WithDetails(map[string]any{
				"product_id": req.ProductID.String(),
				"requested":  req.Qty,
				"available":  product.Count,
			})
	}
	return nil
}

// Release returns qty units to the shelf. Used when a sub-order or whole
// order is cancelled, or when a pending order expires.
func Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET count = count + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	return nil
}
