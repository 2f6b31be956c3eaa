package models

// TicketTypeOrder is one (ticket type, quantity) line of an incoming cart.
type TicketTypeOrder struct {
	TicketTypeID string `json:"ticketTypeId"`
	Quantity     int    `json:"quantity"`
}

// AddonOrderRequest is one (addon, quantity) line of an incoming cart.
type AddonOrderRequest struct {
	AddonID  string `json:"addonId"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is the body of POST /orders/create.
type CreateOrderRequest struct {
	EventID      string              `json:"eventId"`
	TicketOrders []TicketTypeOrder   `json:"ticketOrders"`
	AddonOrders  []AddonOrderRequest `json:"addonOrders,omitempty"`
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone,omitempty"`
	PromoCodeID  string              `json:"promocodeId,omitempty"`
	SuccessURL   string              `json:"successUrl,omitempty"`
	CancelURL    string              `json:"cancelUrl,omitempty"`
}

// CreateOrderResponse is the order plus the gateway session handles.
// Both session fields are null when checkout bypassed the gateway.
type CreateOrderResponse struct {
	*Order
	SessionID  *string `json:"sessionId"`
	SessionURL *string `json:"sessionUrl"`
}

// TicketDetails carries one attendee's identity for fulfillment.
type TicketDetails struct {
	TicketID  string `json:"ticketId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// FillTicketDetailsRequest is the body of POST /orders/fill-ticket-details.
type FillTicketDetailsRequest struct {
	OrderID string          `json:"orderId"`
	Tickets []TicketDetails `json:"tickets"`
}

// PaymentStatusResponse is returned by the payment status poll.
type PaymentStatusResponse struct {
	Paid    bool   `json:"paid"`
	Message string `json:"message"`
}

// PromoLookupResponse surfaces a promo code and its evaluated active flag
// to the buyer before checkout.
type PromoLookupResponse struct {
	PromoCode *PromoCode `json:"promocode"`
	Active    bool       `json:"active"`
}
