package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/healthchat/backend/internal/model/chat"
	"github.com/healthchat/backend/internal/model/content"
)

// Resolver walks its tiers in order and returns the first reply produced.
// The last tier is always the default answer, so Resolve cannot fail.
type Resolver struct {
	tiers []Strategy
}

// Options selects the optional tiers. Nil fields disable their tier.
type Options struct {
	Answerer Answerer
	Sender   Sender
}

// New assembles generative -> gateway -> canned -> default from opts and table.
func New(table *content.Table, opts Options) (*Resolver, error) {
	tiers := make([]Strategy, 0, 4)
	if opts.Answerer != nil {
		tiers = append(tiers, Generative(opts.Answerer))
	}
	if opts.Sender != nil {
		tiers = append(tiers, Gateway(opts.Sender))
	}

	canned, err := Canned(table.Topics)
	if err != nil {
		return nil, fmt.Errorf("build keyword matcher: %w", err)
	}
	tiers = append(tiers, canned, Default(table.DefaultWithDisclaimer()))

	return &Resolver{tiers: tiers}, nil
}

// NewWithTiers builds a resolver over an explicit tier list. fallback is
// appended as the final tier so the chain can never run dry.
func NewWithTiers(fallback string, tiers ...Strategy) *Resolver {
	all := append(append([]Strategy(nil), tiers...), Default(fallback))
	return &Resolver{tiers: all}
}

// Tiers lists tier names in evaluation order.
func (r *Resolver) Tiers() []string {
	names := make([]string, len(r.tiers))
	for i, tier := range r.tiers {
		names[i] = tier.Name()
	}
	return names
}

// Resolve returns the reply for text. The error is always nil; it exists so
// remote implementations of the same contract can report transport faults.
func (r *Resolver) Resolve(ctx context.Context, text, sessionID string) (chat.Response, error) {
	req := chat.Request{Message: text, SessionID: sessionID}

	for _, tier := range r.tiers {
		start := time.Now()
		resp, err := tier.Resolve(ctx, req)
		if err != nil {
			if !errors.Is(err, errNoMatch) {
				log.Printf("[resolver] tier=%s failed after %s: %v", tier.Name(), time.Since(start), err)
			}
			continue
		}

		if resp.SessionID == "" {
			resp.SessionID = sessionID
		}
		log.Printf("[resolver] tier=%s answered session=%s in %s", tier.Name(), sessionID, time.Since(start))
		return resp, nil
	}

	// unreachable while the default tier is last
	return chat.Response{SessionID: sessionID}, nil
}
