package order

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// LineItem is one priced line of a checkout, in integer cents.
type LineItem struct {
	Name           string
	UnitPriceCents int64
	Quantity       int
}

// TotalCents sums the line items.
func TotalCents(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// AppendFeeLine appends the service fee as its own line when it is
// non-zero. The fee is percent of the subtotal plus a fixed amount and is
// not charged on zero-total carts.
func AppendFeeLine(items []LineItem, feePercent, feeFixedCents int64) []LineItem {
	subtotal := TotalCents(items)
	if subtotal == 0 {
		return items
	}
	fee := subtotal*feePercent/100 + feeFixedCents
	if fee <= 0 {
		return items
	}
	return append(items, LineItem{Name: "Service Fee", UnitPriceCents: fee, Quantity: 1})
}

// displayName renders a line the way it appears on the hosted page.
func displayName(item LineItem) string {
	if item.Quantity > 1 {
		return fmt.Sprintf("%s x%d", item.Name, item.Quantity)
	}
	return item.Name
}

// CheckoutService creates hosted checkout sessions through Stripe.
type CheckoutService struct {
	Client     *client.API
	Currency   string
	SuccessURL string
	CancelURL  string
	Log        *logger.Logger
}

func NewCheckoutService(sc *client.API, currency, successURL, cancelURL string, log *logger.Logger) *CheckoutService {
	return &CheckoutService{
		Client:     sc,
		Currency:   currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Log:        log,
	}
}

// resolveCustomer reuses an existing Stripe customer with the buyer's email
// or creates one. Reuse keeps a buyer's payments under one customer across
// orders.
func (c *CheckoutService) resolveCustomer(order *models.Order) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(order.Email)}
	listParams.Limit = stripe.Int64(1)
	iter := c.Client.Customers.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}

	customer, err := c.Client.Customers.New(&stripe.CustomerParams{
		Email: stripe.String(order.Email),
		Name:  stripe.String(order.FirstName + " " + order.LastName),
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return customer.ID, nil
}

// CreateSession opens a payment-mode checkout session for the order. The
// order id travels in metadata on both the session and its payment intent
// so the reconciler can resolve the order from either object.
func (c *CheckoutService) CreateSession(ctx context.Context, order *models.Order, items []LineItem, successURL, cancelURL string) (string, string, error) {
	customerID, err := c.resolveCustomer(order)
	if err != nil {
		return "", "", err
	}

	if successURL == "" {
		successURL = c.SuccessURL
	}
	if cancelURL == "" {
		cancelURL = c.CancelURL
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.Currency),
				UnitAmount: stripe.Int64(item.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(displayName(item)),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"orderId": order.ID},
		},
	}
	params.Context = ctx
	params.AddMetadata("orderId", order.ID)

	session, err := c.Client.CheckoutSessions.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create session: %w", err)
	}

	c.Log.LogOrder(order.ID, fmt.Sprintf("checkout session %s created", session.ID))
	return session.ID, session.URL, nil
}

// GetCheckoutSession fetches a session with its payment intent expanded,
// for the payment status poll.
func (c *CheckoutService) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	return c.Client.CheckoutSessions.Get(sessionID, params)
}
