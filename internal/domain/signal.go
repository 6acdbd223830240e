package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Signal is the direction of a cross-exchange opportunity, expressed from the
// primary exchange's perspective.
type Signal int

const (
	// SignalPrimaryLong: buy on the primary, sell on the secondary
	// (secondary price is higher).
	SignalPrimaryLong Signal = iota + 1

	// SignalPrimaryShort: sell on the primary, buy on the secondary
	// (primary price is higher).
	SignalPrimaryShort
)

// String returns the wire/display name of the signal.
func (s Signal) String() string {
	switch s {
	case SignalPrimaryLong:
		return "PRIMARY_LONG"
	case SignalPrimaryShort:
		return "PRIMARY_SHORT"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// MarshalJSON encodes the signal as its display name.
func (s Signal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a display name produced by MarshalJSON.
func (s *Signal) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseSignal(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSignal maps a display name back to a Signal.
func ParseSignal(s string) (Signal, error) {
	switch s {
	case "PRIMARY_LONG":
		return SignalPrimaryLong, nil
	case "PRIMARY_SHORT":
		return SignalPrimaryShort, nil
	default:
		return 0, fmt.Errorf("unknown signal %q", s)
	}
}

// Decision is the cooldown engine's verdict for a validated opportunity. The
// checks run in the declared order; the first match wins.
type Decision int

const (
	// DecisionNewSpread: first sighting of this (symbol, secondary) pair.
	DecisionNewSpread Decision = iota + 1

	// DecisionMinCooldown: too soon after the last notification.
	DecisionMinCooldown

	// DecisionSpreadChanged: spread moved enough since the last notification.
	DecisionSpreadChanged

	// DecisionMaxCooldown: spread persisted long enough to re-alert.
	DecisionMaxCooldown

	// DecisionNoSignificantChange: nothing noteworthy; suppress.
	DecisionNoSignificantChange
)

// Notify reports whether the decision results in a dispatched alert.
func (d Decision) Notify() bool {
	switch d {
	case DecisionNewSpread, DecisionSpreadChanged, DecisionMaxCooldown:
		return true
	default:
		return false
	}
}

// String returns the wire/display name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionNewSpread:
		return "NEW_SPREAD"
	case DecisionMinCooldown:
		return "MIN_COOLDOWN"
	case DecisionSpreadChanged:
		return "SPREAD_CHANGED"
	case DecisionMaxCooldown:
		return "MAX_COOLDOWN"
	case DecisionNoSignificantChange:
		return "NO_SIGNIFICANT_CHANGE"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// MarshalJSON encodes the decision as its display name.
func (d Decision) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a display name produced by MarshalJSON.
func (d *Decision) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseDecision(name)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDecision maps a display name back to a Decision.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "NEW_SPREAD":
		return DecisionNewSpread, nil
	case "MIN_COOLDOWN":
		return DecisionMinCooldown, nil
	case "SPREAD_CHANGED":
		return DecisionSpreadChanged, nil
	case "MAX_COOLDOWN":
		return DecisionMaxCooldown, nil
	case "NO_SIGNIFICANT_CHANGE":
		return DecisionNoSignificantChange, nil
	default:
		return 0, fmt.Errorf("unknown decision %q", s)
	}
}

// Opportunity is a candidate spread between the primary exchange and one
// secondary exchange. The validator rewrites the price and spread fields with
// executable top-of-book values when it accepts the candidate.
//
// PrimaryVolume and SecondaryVolume are each leg's 24h quote volume;
// SecondaryVolume is zero when the venue does not report one.
// EffectiveVolume is the conservative figure used for gating and scoring:
// the lower of the two legs, or the primary's alone for price-only venues.
type Opportunity struct {
	ID                string
	Symbol            string
	Signal            Signal
	PrimaryExchange   string
	SecondaryExchange string
	PrimaryPrice      float64
	SecondaryPrice    float64
	SpreadPercent     float64
	PrimaryVolume     float64
	SecondaryVolume   float64
	EffectiveVolume   float64
	QualityScore      int
	DetectedAt        time.Time
}

// EntryExchange returns the exchange the entry (buy) leg executes on.
func (o Opportunity) EntryExchange() string {
	if o.Signal == SignalPrimaryLong {
		return o.PrimaryExchange
	}
	return o.SecondaryExchange
}

// ExitExchange returns the exchange the exit (sell) leg executes on.
func (o Opportunity) ExitExchange() string {
	if o.Signal == SignalPrimaryLong {
		return o.SecondaryExchange
	}
	return o.PrimaryExchange
}

// Alert is an opportunity that survived every gate and was dispatched to the
// notification channels. This is the record persisted for audit.
type Alert struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Signal            Signal    `json:"signal"`
	Decision          Decision  `json:"decision"`
	PrimaryExchange   string    `json:"primary_exchange"`
	SecondaryExchange string    `json:"secondary_exchange"`
	PrimaryPrice      float64   `json:"primary_price"`
	SecondaryPrice    float64   `json:"secondary_price"`
	SpreadPercent     float64   `json:"spread_percent"`
	EffectiveVolume   float64   `json:"effective_volume"`
	QualityScore      int       `json:"quality_score"`
	FundingNote       string    `json:"funding_note"`
	SentAt            time.Time `json:"sent_at"`
}
