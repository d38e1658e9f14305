package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"encore/internal/domain"
	"encore/internal/repos"
	"encore/internal/webhook"
)

var (
	ErrUnknownOrder   = errors.New("unknown order")
	ErrAmountMismatch = errors.New("paid amount does not match order total")
	ErrBadPatron      = errors.New("invalid subscription payload")
)

// EventLog remembers which processor events were already handled.
// Claim reports false for an id seen before.
type EventLog interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type PaymentsService struct {
	Events  EventLog
	Orders  *repos.OrderRepo
	Patrons *repos.PatronRepo
}

func NewPaymentsService(events EventLog, orders *repos.OrderRepo, patrons *repos.PatronRepo) *PaymentsService {
	return &PaymentsService{Events: events, Orders: orders, Patrons: patrons}
}

// Process applies a verified event at most once. When handling fails the
// claim is dropped so a redelivery gets another chance.
func (s *PaymentsService) Process(ctx context.Context, e webhook.Event) (Outcome, error) {
	fresh, err := s.Events.Claim(ctx, e.ID)
	if err != nil {
		return "", err
	}
	if !fresh {
		return OutcomeDuplicate, nil
	}
	out, err := s.dispatch(e)
	if err != nil {
		if rerr := s.Events.Release(ctx, e.ID); rerr != nil {
			return "", errors.Join(err, rerr)
		}
		return "", err
	}
	return out, nil
}

func (s *PaymentsService) dispatch(e webhook.Event) (Outcome, error) {
	switch e.Type {
	case webhook.CheckoutCompleted:
		var d webhook.CheckoutData
		if err := decodeData(e, &d); err != nil {
			return "", err
		}
		return s.completed(e.ID, d)
	case webhook.CheckoutExpired:
		var d webhook.CheckoutData
		if err := decodeData(e, &d); err != nil {
			return "", err
		}
		return s.move(d.OrderID, domain.OrderPendingPayment, domain.OrderCanceled)
	case webhook.ChargeRefunded:
		var d webhook.CheckoutData
		if err := decodeData(e, &d); err != nil {
			return "", err
		}
		return s.refunded(e.ID, d)
	case webhook.SubscriptionUpdated:
		var d webhook.SubscriptionData
		if err := decodeData(e, &d); err != nil {
			return "", err
		}
		return s.subscription(d)
	case webhook.SubscriptionDeleted:
		var d webhook.SubscriptionData
		if err := decodeData(e, &d); err != nil {
			return "", err
		}
		email := strings.TrimSpace(d.Email)
		if email == "" {
			return "", fmt.Errorf("%w: email required", ErrBadPatron)
		}
		if err := s.Patrons.Cancel(email); err != nil {
			return "", err
		}
		return OutcomeProcessed, nil
	}
	return OutcomeIgnored, nil
}

func decodeData(e webhook.Event, v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", webhook.ErrBadEvent, e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %v", webhook.ErrBadEvent, err)
	}
	return nil
}

// Cents converts a stored order total to the processor's minor units.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func (s *PaymentsService) order(id string) (repos.OrderRow, error) {
	if strings.TrimSpace(id) == "" {
		return repos.OrderRow{}, fmt.Errorf("%w: order_id required", webhook.ErrBadEvent)
	}
	o, _, err := s.Orders.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return o, fmt.Errorf("%w: %s", ErrUnknownOrder, id)
	}
	return o, err
}

func (s *PaymentsService) completed(eventID string, d webhook.CheckoutData) (Outcome, error) {
	o, err := s.order(d.OrderID)
	if err != nil {
		return "", err
	}
	if want := Cents(o.Total); d.AmountCents != want {
		return "", fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, d.AmountCents, want)
	}
	switch o.Status {
	case domain.OrderPendingPayment:
	case domain.OrderPaid:
		// a second completion for the same order under a new event id
		return OutcomeIgnored, nil
	default:
		return "", fmt.Errorf("%w: %s -> %s", repos.ErrBadTransition, o.Status, domain.OrderPaid)
	}
	charge := repos.Payment{EventID: eventID, Kind: repos.PaymentCharge, AmountCents: d.AmountCents}
	if _, err := s.Orders.Settle(o.ID, domain.OrderPaid, charge); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

func (s *PaymentsService) refunded(eventID string, d webhook.CheckoutData) (Outcome, error) {
	o, err := s.order(d.OrderID)
	if err != nil {
		return "", err
	}
	if o.Status == domain.OrderRefunded {
		return OutcomeIgnored, nil
	}
	refund := repos.Payment{EventID: eventID, Kind: repos.PaymentRefund, AmountCents: d.AmountCents}
	if _, err := s.Orders.Settle(o.ID, domain.OrderRefunded, refund); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

// move transitions an order unless it has already left the expected state.
func (s *PaymentsService) move(orderID, from, to string) (Outcome, error) {
	o, err := s.order(orderID)
	if err != nil {
		return "", err
	}
	if o.Status != from {
		return OutcomeIgnored, nil
	}
	if _, err := s.Orders.Transition(o.ID, to); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

func (s *PaymentsService) subscription(d webhook.SubscriptionData) (Outcome, error) {
	email := strings.TrimSpace(d.Email)
	if email == "" {
		return "", fmt.Errorf("%w: email required", ErrBadPatron)
	}
	tier, ok := domain.ParseTier(d.Tier)
	if !ok || tier == domain.TierNone {
		return "", fmt.Errorf("%w: tier %q", ErrBadPatron, d.Tier)
	}
	status := strings.ToUpper(strings.TrimSpace(d.Status))
	switch status {
	case "":
		status = domain.PatronActive
	case domain.PatronActive, domain.PatronPastDue, domain.PatronCanceled:
	default:
		return "", fmt.Errorf("%w: status %q", ErrBadPatron, d.Status)
	}
	if err := s.Patrons.Upsert(domain.Patron{
		Email: email, Tier: tier, Status: status, PeriodEnd: d.PeriodEnd,
	}); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}
