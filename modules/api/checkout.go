package api

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/events"
	"github.com/emmanuel197/kuandorwear-media/modules/payment"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/shopspring/decimal"
)

type pricedLine struct {
	line  OrderLine
	price decimal.Decimal
}

// checkout places an order for customerID. The order, its items, the stock
// decrements and the cleared cart are written as one unit of work. A paid
// order claims its payment reference inside that unit, and the claim is
// released again when the unit fails.
func (s *server) checkout(ctx context.Context, customerID uint, body OrderBody) (*OrderView, error) {
	lines := make([]pricedLine, 0, len(body.Items))
	total := decimal.Zero
	for i, line := range body.Items {
		product, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, fieldError(fmt.Sprintf("items[%d].productId", i), "product is not available")
		}
		unit := product.UnitPrice()
		lines = append(lines, pricedLine{line: line, price: unit})
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	reference := body.PaymentReference
	paymentStatus, err := s.paymentStatus(ctx, customerID, reference, total)
	if err != nil {
		return nil, err
	}

	var (
		view    OrderView
		claimed bool
	)
	err = s.store.Atomically(ctx, func(tx storage.Storage) error {
		if paymentStatus == shop.PaymentPaid {
			if err := s.payments.ClaimPayment(ctx, reference, customerID); err != nil {
				return referenceError(err)
			}
			claimed = true
		}

		order, err := tx.CreateOrder(ctx, shop.NewOrder{
			CustomerID:       customerID,
			TotalAmount:      total,
			Status:           shop.OrderPending,
			PaymentStatus:    paymentStatus,
			PaymentReference: reference,
		})
		if err != nil {
			return err
		}

		items := make([]shop.OrderItem, 0, len(lines))
		for _, l := range lines {
			item, err := tx.AddOrderItem(ctx, shop.NewOrderItem{
				OrderID:   order.ID,
				ProductID: l.line.ProductID,
				Quantity:  l.line.Quantity,
				Price:     l.price,
				Size:      l.line.Size,
				Color:     l.line.Color,
			})
			if err != nil {
				return err
			}
			items = append(items, *item)

			if err := decrementStock(ctx, tx, l.line.ProductID, l.line.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.UpdateCart(ctx, customerID, []shop.CartItem{}); err != nil {
			return err
		}

		view = OrderView{Order: *order, Items: items}
		return nil
	})
	if err != nil {
		if claimed {
			s.releasePayment(ctx, reference)
		}
		return nil, err
	}

	s.events.OrderPlaced(events.OrderPlacedEvent{
		OrderID:     view.ID,
		CustomerID:  customerID,
		TotalAmount: view.TotalAmount,
		ItemCount:   len(view.Items),
		PlacedAt:    view.OrderDate,
	})
	return &view, nil
}

// decrementStock lowers the product's stock by qty, never below zero, and
// records the result in the supplier's inventory.
func decrementStock(ctx context.Context, tx storage.Storage, productID uint, qty int) error {
	product, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("product %d disappeared during checkout", productID)
	}
	stock := max(0, product.Stock-qty)
	_, err = tx.UpdateInventory(ctx, product.SupplierID, productID, stock)
	return err
}

// paymentStatus verifies reference for customerID. No reference leaves the
// order pending.
func (s *server) paymentStatus(ctx context.Context, customerID uint, reference string, total decimal.Decimal) (shop.PaymentStatus, error) {
	if reference == "" {
		return shop.PaymentPending, nil
	}
	res, err := s.payments.VerifyPayment(ctx, reference)
	if err != nil {
		return "", referenceError(err)
	}
	if res.Data.CustomerID != customerID {
		return "", referenceError(payment.ErrReferenceCustomer)
	}
	if !res.Success || res.Data.Status != payment.StatusSuccess {
		return shop.PaymentFailed, nil
	}
	if res.Data.Claimed {
		return "", referenceError(payment.ErrReferenceClaimed)
	}
	if res.Data.Amount.LessThan(total) {
		return "", fieldError("paymentReference", "payment amount does not cover the order total")
	}
	return shop.PaymentPaid, nil
}

// releasePayment returns a claimed reference after the order failed to save.
func (s *server) releasePayment(ctx context.Context, reference string) {
	if err := s.payments.ReleasePayment(context.WithoutCancel(ctx), reference); err != nil {
		log.Printf("[api] Warning: failed to release payment reference %s: %v", reference, err)
	}
}

func referenceError(err error) error {
	switch {
	case errors.Is(err, payment.ErrReferenceNotFound):
		return fieldError("paymentReference", "unknown payment reference")
	case errors.Is(err, payment.ErrReferenceClaimed):
		return fieldError("paymentReference", "payment reference has already been used")
	case errors.Is(err, payment.ErrReferenceCustomer):
		return fieldError("paymentReference", "payment reference belongs to another customer")
	default:
		return err
	}
}
