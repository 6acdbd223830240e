package domain

// Ticker is one exchange's latest view of a USDT-perpetual contract.
type Ticker struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`

	// VolumeUSDT is the 24h quote volume. Only some exchanges report it;
	// VolumeKnown is false when the venue is price-only.
	VolumeUSDT  float64 `json:"volume_usdt"`
	VolumeKnown bool    `json:"volume_known"`
}

// TickerSnapshot maps normalized symbol (e.g. "BTCUSDT") to its ticker for a
// single exchange fetch.
type TickerSnapshot map[string]Ticker

// BookTop is the best bid and ask for a single contract.
type BookTop struct {
	Bid float64
	Ask float64
}

// InternalSpreadPercent returns the bid/ask spread of the book itself,
// relative to the bid: (ask-bid)/bid*100.
func (b BookTop) InternalSpreadPercent() float64 {
	if b.Bid <= 0 {
		return 0
	}
	return (b.Ask - b.Bid) / b.Bid * 100
}
