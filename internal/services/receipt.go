package services

import (
	"time"

	"github.com/shopspring/decimal"

	"minimarket/internal/domain"
)

// TaxRate is the VAT included in every order total.
var TaxRate = decimal.RequireFromString("0.19")

type ReceiptLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

type Receipt struct {
	OrderID  string             `json:"order_id"`
	Date     time.Time          `json:"date"`
	Status   domain.OrderStatus `json:"status"`
	Customer domain.ContactInfo `json:"customer"`
	Lines    []ReceiptLine      `json:"lines"`
	Subtotal float64            `json:"subtotal"`
	Tax      float64            `json:"tax"`
	Total    float64            `json:"total"`
}

// ComputeReceipt splits the order total into tax (19% of the total, rounded
// to cents) and subtotal, so that subtotal+tax equals the total.
func ComputeReceipt(o domain.Order) Receipt {
	total := decimal.NewFromFloat(o.Total)
	tax := total.Mul(TaxRate).Round(2)

	lines := make([]ReceiptLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, ReceiptLine{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.Price,
			Subtotal: domain.ToFloat(domain.LineTotal(l.Price, l.Quantity)),
		})
	}
	return Receipt{
		OrderID:  o.ID,
		Date:     o.Date,
		Status:   o.Status,
		Customer: o.Customer,
		Lines:    lines,
		Subtotal: domain.ToFloat(total.Sub(tax)),
		Tax:      domain.ToFloat(tax),
		Total:    domain.ToFloat(total),
	}
}
