package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// EventChargeComplete is the webhook key sent when an offsite or 3-D Secure
// charge finishes.
const EventChargeComplete = "charge.complete"

// OmiseProvider charges cards and sources through Omise.
type OmiseProvider struct {
	client *omise.Client
}

func NewOmiseProvider(publicKey, secretKey string) (*OmiseProvider, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	return &OmiseProvider{client: c}, nil
}

func (o *OmiseProvider) Name() string { return "omise" }

func (o *OmiseProvider) Charge(_ context.Context, req ChargeRequest) (Charge, error) {
	if req.Token == "" && req.Source == "" {
		return Charge{}, ErrMissingSource
	}
	ch := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      req.Amount,
		Currency:    strings.ToLower(req.Currency),
		Card:        req.Token,
		Source:      req.Source,
		ReturnURI:   req.ReturnURI,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := o.client.Do(ch, op); err != nil {
		return Charge{}, fmt.Errorf("omise create charge: %w", err)
	}
	return fromOmise(ch), nil
}

func (o *OmiseProvider) Retrieve(_ context.Context, chargeID string) (Charge, error) {
	ch := &omise.Charge{}
	if err := o.client.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID}); err != nil {
		return Charge{}, fmt.Errorf("omise retrieve charge: %w", err)
	}
	return fromOmise(ch), nil
}

func (o *OmiseProvider) Refund(_ context.Context, chargeID string, amount int64) error {
	rf := &omise.Refund{}
	if err := o.client.Do(rf, &operations.CreateRefund{ChargeID: chargeID, Amount: amount}); err != nil {
		return fmt.Errorf("omise refund: %w", err)
	}
	return nil
}

// Event is a webhook event confirmed with the provider.
type Event struct {
	ID     string
	Key    string
	Charge *Charge
}

// RetrieveEvent re-fetches a webhook event by id so only events that exist at
// Omise are acted upon.
func (o *OmiseProvider) RetrieveEvent(_ context.Context, eventID string) (Event, error) {
	ev := &omise.Event{}
	if err := o.client.Do(ev, &operations.RetrieveEvent{EventID: eventID}); err != nil {
		return Event{}, fmt.Errorf("omise retrieve event: %w", err)
	}
	out := Event{ID: ev.ID, Key: ev.Key}
	if strings.HasPrefix(ev.Key, "charge.") {
		ch, err := decodeCharge(ev.Data)
		if err != nil {
			return Event{}, err
		}
		c := fromOmise(ch)
		out.Charge = &c
	}
	return out, nil
}

// decodeCharge converts the untyped event payload into a charge.
func decodeCharge(data any) (*omise.Charge, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}
	ch := &omise.Charge{}
	if err := json.Unmarshal(raw, ch); err != nil {
		return nil, fmt.Errorf("decode event charge: %w", err)
	}
	return ch, nil
}

func fromOmise(ch *omise.Charge) Charge {
	out := Charge{ID: ch.ID, AuthorizeURI: ch.AuthorizeURI}
	switch string(ch.Status) {
	case "successful":
		out.Status = StatusSuccessful
	case "pending":
		out.Status = StatusPending
	default:
		out.Status = StatusFailed
	}
	if ch.FailureCode != nil {
		out.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		out.FailureMessage = *ch.FailureMessage
	}
	return out
}
