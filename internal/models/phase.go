package models

// Phase identifies one of the five intra-day ledger phases. Phases are
// strictly ordered within a trading day and cycle exactly once per date.
type Phase int

// Intra-day phases, in execution order.
const (
	PhaseBOD Phase = iota
	PhaseBODAdjusted
	PhasePostOpen
	PhasePreClose
	PhaseEOD
)

// NumPhases is the number of phases in a trading day.
const NumPhases = 5

var phaseNames = [NumPhases]string{"bod", "bod_adjusted", "post_open", "pre_close", "eod"}

func (p Phase) String() string {
	if p < 0 || int(p) >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Prev returns the preceding phase within the same day.
// The first phase of a day has no predecessor.
func (p Phase) Prev() (Phase, bool) {
	if p <= PhaseBOD || int(p) >= NumPhases {
		return 0, false
	}
	return p - 1, true
}

// Auction identifies the price-fixing event at which registered orders
// execute.
type Auction string

// Auctions.
const (
	AuctionOpen  Auction = "open"
	AuctionClose Auction = "close"
)

// PriceReference returns the price column used to value the portfolio at
// this auction.
func (a Auction) PriceReference() PriceReference {
	if a == AuctionClose {
		return PriceClose
	}
	return PriceOpen
}

// PriceReference selects which price column values positions at a phase.
type PriceReference string

// Price references.
const (
	PriceOpen  PriceReference = "open"
	PriceClose PriceReference = "close"
)
