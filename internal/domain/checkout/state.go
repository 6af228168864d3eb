package checkout

// State is a step of a commit.
type State int

const (
	Idle State = iota
	GeneratingID
	PersistingReceipt
	PersistingItems
	AdjustingStock
	Committed
	Failed
)

var stateNames = [...]string{
	Idle:              "idle",
	GeneratingID:      "generating_id",
	PersistingReceipt: "persisting_receipt",
	PersistingItems:   "persisting_items",
	AdjustingStock:    "adjusting_stock",
	Committed:         "committed",
	Failed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Transition is one state change of a commit, reported to an Observer.
type Transition struct {
	CartID  string
	Attempt int
	From    State
	To      State
	// InvoiceID is set once a number has been generated for the attempt.
	InvoiceID string
}

// Observer receives every state change. It is called synchronously and must
// not block.
type Observer func(Transition)

// StockPolicy decides what happens when a sale takes stock below zero.
type StockPolicy string

const (
	// AllowNegative lets stock go negative; negative stock signals overselling
	// in reports.
	AllowNegative StockPolicy = "allow_negative"
	// RejectNegative fails the commit with INSUFFICIENT_STOCK instead.
	RejectNegative StockPolicy = "reject_negative"
)

// ParseStockPolicy maps a configuration value to a policy.
// Unknown values fall back to AllowNegative.
func ParseStockPolicy(s string) StockPolicy {
	if StockPolicy(s) == RejectNegative {
		return RejectNegative
	}
	return AllowNegative
}
