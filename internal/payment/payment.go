package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrMissingSource   = errors.New("card token or source is required")
)

type Status string

const (
	StatusSuccessful Status = "successful"
	StatusPending    Status = "pending"
	StatusFailed     Status = "failed"
)

type ChargeRequest struct {
	Amount      int64
	Currency    string
	Token       string
	Source      string
	ReturnURI   string
	Description string
	Metadata    map[string]any
}

// Charge is the provider-neutral outcome of a charge attempt.
type Charge struct {
	ID             string
	Status         Status
	AuthorizeURI   string
	FailureCode    string
	FailureMessage string
}

type Provider interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
	Retrieve(ctx context.Context, chargeID string) (Charge, error)
	Refund(ctx context.Context, chargeID string, amount int64) error
}

// Registry resolves providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists the configured providers in order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Refund refunds amount of chargeID through the named provider.
func (r *Registry) Refund(ctx context.Context, provider, chargeID string, amount int64) error {
	p, err := r.Get(provider)
	if err != nil {
		return err
	}
	return p.Refund(ctx, chargeID, amount)
}
