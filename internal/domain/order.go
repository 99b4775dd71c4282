package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pendiente"
	StatusShipped   OrderStatus = "enviado"
	StatusDelivered OrderStatus = "entregado"
	StatusCancelled OrderStatus = "cancelado"
)

// transitions lists the legal next states. Delivered and cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) Terminal() bool { return len(transitions[s]) == 0 }

// CanTransition reports whether an order in s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Payment methods accepted on the checkout form. No money changes hands.
const (
	PaymentCash     = "efectivo"
	PaymentCard     = "tarjeta"
	PaymentTransfer = "transferencia"
)

type ContactInfo struct {
	Name          string `json:"nombre"`
	Phone         string `json:"telefono"`
	Email         string `json:"email"`
	Address       string `json:"direccion"`
	Neighborhood  string `json:"barrio"`
	PaymentMethod string `json:"metodo_pago"`
}

type OrderLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	Price     float64 `json:"precio"`
	Image     string  `json:"imagen,omitempty"`
}

type StatusChange struct {
	Status OrderStatus `json:"estado"`
	At     time.Time   `json:"fecha"`
	By     string      `json:"por,omitempty"`
}

// Order is frozen at checkout; only Status and History change afterwards.
type Order struct {
	ID       string         `json:"id"`
	UserID   string         `json:"uid"`
	Customer ContactInfo    `json:"usuario"`
	Lines    []OrderLine    `json:"productos"`
	Total    float64        `json:"total"`
	Date     time.Time      `json:"fecha"`
	Status   OrderStatus    `json:"estado"`
	History  []StatusChange `json:"historial,omitempty"`
}
