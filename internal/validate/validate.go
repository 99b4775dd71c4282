package validate

import (
	"fmt"
	"regexp"
	"strings"

	"minimarket/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ]{7,15}$`)
	reQ     = regexp.MustCompile(`^[\p{L}0-9 _'\-]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Phone accepts Colombian-style mobile and landline numbers, optional +57.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePhone.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

// MaxQty is the most units a single cart request may carry.
const MaxQty = 50

// Qty rejects quantities below one and clamps large ones to MaxQty.
func Qty(n int) (int, bool) {
	if n < 1 {
		return n, false
	}
	return min(n, MaxQty), true
}

// ID validates a simple resource identifier (product/order/user ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > 60 {
		return "", false
	}
	return s, true
}

// Address validates a free-text street address or neighborhood.
func Address(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > 120 {
		return "", false
	}
	return s, true
}

func PaymentMethod(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case domain.PaymentCash, domain.PaymentCard, domain.PaymentTransfer:
		return s, true
	}
	return "", false
}

// Contact checks the checkout form and returns it normalised.
func Contact(c domain.ContactInfo) (domain.ContactInfo, error) {
	var ok bool
	if c.Name, ok = Name(c.Name); !ok {
		return c, fmt.Errorf("%w: name", domain.ErrInvalidContact)
	}
	if c.Phone, ok = Phone(c.Phone); !ok {
		return c, fmt.Errorf("%w: phone", domain.ErrInvalidContact)
	}
	if c.Email, ok = Email(c.Email); !ok {
		return c, fmt.Errorf("%w: email", domain.ErrInvalidContact)
	}
	if c.Address, ok = Address(c.Address); !ok {
		return c, fmt.Errorf("%w: address", domain.ErrInvalidContact)
	}
	if c.Neighborhood, ok = Address(c.Neighborhood); !ok {
		return c, fmt.Errorf("%w: neighborhood", domain.ErrInvalidContact)
	}
	if c.PaymentMethod, ok = PaymentMethod(c.PaymentMethod); !ok {
		return c, fmt.Errorf("%w: payment method", domain.ErrInvalidContact)
	}
	return c, nil
}

// Password requires 8-20 bytes with lower, upper, digit and symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
