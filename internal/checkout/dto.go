package checkout

import (
	"github.com/google/uuid"
)

// LineInput is one requested product line in a new order.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}
