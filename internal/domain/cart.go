package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// CartLine snapshots the product at the time it was first added.
// Stock is the quantity ceiling for the line.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal { return LineTotal(l.Price, l.Quantity) }

// Cart is a value: every operation returns a new Cart and leaves the
// receiver untouched. There is at most one line per product id and lines
// keep insertion order.
type Cart struct {
	Lines []CartLine `json:"items"`
}

func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func (c Cart) index(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if any.
func (c Cart) Line(productID string) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c Cart) clone() Cart {
	lines := make([]CartLine, len(c.Lines), len(c.Lines)+1)
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// Add upserts p: an existing line has its quantity incremented, otherwise a
// new snapshot line is appended. No stock ceiling is checked here.
func (c Cart) Add(p Product, qty int) (Cart, error) {
	if qty < 1 {
		return c, ErrInvalidQuantity
	}
	out := c.clone()
	if i := out.index(p.ID); i >= 0 {
		if out.Lines[i].Quantity > math.MaxInt-qty {
			return c, ErrInvalidQuantity
		}
		out.Lines[i].Quantity += qty
		return out, nil
	}
	out.Lines = append(out.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Stock:     p.Stock,
		Quantity:  qty,
	})
	return out, nil
}

// UpdateQuantity replaces the quantity of an existing line.
func (c Cart) UpdateQuantity(productID string, qty int) (Cart, error) {
	if qty < 1 {
		return c, ErrInvalidQuantity
	}
	i := c.index(productID)
	if i < 0 {
		return c, ErrNotFound
	}
	out := c.clone()
	out.Lines[i].Quantity = qty
	return out, nil
}

// Remove drops the line for productID. Removing an absent line is a no-op.
func (c Cart) Remove(productID string) Cart {
	out := Cart{Lines: make([]CartLine, 0, len(c.Lines))}
	for _, l := range c.Lines {
		if l.ProductID != productID {
			out.Lines = append(out.Lines, l)
		}
	}
	return out
}

func (c Cart) Clear() Cart { return Cart{Lines: []CartLine{}} }

// Total is the sum of price*quantity over all lines.
func (c Cart) Total() float64 {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return ToFloat(sum)
}

// Merge upserts every line of other into c. Quantities add up and are
// clamped to the line's stock snapshot when one is known.
func (c Cart) Merge(other Cart) Cart {
	out := c.clone()
	for _, l := range other.Lines {
		if i := out.index(l.ProductID); i >= 0 {
			q := out.Lines[i].Quantity + l.Quantity
			if ceil := out.Lines[i].Stock; ceil > 0 && q > ceil {
				q = ceil
			}
			out.Lines[i].Quantity = q
			continue
		}
		out.Lines = append(out.Lines, l)
	}
	return out
}
