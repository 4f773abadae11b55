package stream

// messages.go — wire types of the Exchange Stream protocol.
//
// Outbound and inbound messages are JSON objects discriminated by "op".
// Inbound ops: "status" (auth result), "mcm" (market changes), "ocm" (order
// changes). Outbound ops: "authentication", "marketSubscription",
// "orderSubscription".

// AuthMessage is the first message sent on every new connection.
type AuthMessage struct {
	Op      string `json:"op"`
	AppKey  string `json:"appKey"`
	Session string `json:"session"`
}

// MarketFilter selects the market ids a subscription covers.
type MarketFilter struct {
	MarketIDs []string `json:"marketIds"`
}

// MarketDataFilter selects which delta fields the stream sends.
type MarketDataFilter struct {
	Fields []string `json:"fields"`
}

// MarketSubscription subscribes one batch of at most ten markets.
type MarketSubscription struct {
	Op               string           `json:"op"`
	ID               int              `json:"id"`
	MarketFilter     MarketFilter     `json:"marketFilter"`
	MarketDataFilter MarketDataFilter `json:"marketDataFilter"`
}

// OrderSubscription subscribes the session's own order stream.
type OrderSubscription struct {
	Op string `json:"op"`
	ID int    `json:"id"`
}

// Message is the inbound envelope. Only the fields of the matching op are set.
type Message struct {
	Op         string        `json:"op"`
	ID         int           `json:"id,omitempty"`
	StatusCode string        `json:"statusCode,omitempty"`
	MC         []MarketChange `json:"mc,omitempty"`
	OC         []OrderChange  `json:"oc,omitempty"`
}

// MarketChange is one market delta inside an mcm message.
type MarketChange struct {
	ID               string            `json:"id"`
	MarketDefinition *MarketDefinition `json:"marketDefinition,omitempty"`
	RC               []RunnerChange    `json:"rc,omitempty"`
}

// MarketDefinition carries the venue's view of the market.
type MarketDefinition struct {
	InPlay  bool        `json:"inPlay"`
	Status  string      `json:"status"` // OPEN | SUSPENDED | CLOSED
	Runners []RunnerDef `json:"runners,omitempty"`
	Score   *Score      `json:"score,omitempty"`
}

// RunnerDef is a runner's definition entry; Status is WINNER/LOSER once settled.
type RunnerDef struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
}

// Score is the match score as reported by the venue.
type Score struct {
	Sets []SetScore `json:"sets,omitempty"`
}

// SetScore is one set's game counts.
type SetScore struct {
	Home      int  `json:"home"`
	Away      int  `json:"away"`
	Completed bool `json:"completed"`
}

// RunnerChange is a runner odds delta. BATB rows are [position, price, size];
// position 0 is the best available back price. LTP is the last traded price.
type RunnerChange struct {
	ID   int64       `json:"id"`
	LTP  float64     `json:"ltp,omitempty"`
	BATB [][]float64 `json:"batb,omitempty"`
}

// BestBack returns the best available back price of the delta, falling back
// to the last traded price. Zero means the delta carries no usable price.
func (rc RunnerChange) BestBack() float64 {
	for _, row := range rc.BATB {
		if len(row) >= 2 && row[0] == 0 {
			return row[1]
		}
	}
	return rc.LTP
}

// OrderChange is one market's order delta inside an ocm message.
type OrderChange struct {
	MarketID string        `json:"marketId"`
	OR       []OrderReport `json:"or,omitempty"`
}

// OrderReport is the state of one of the session's own orders.
type OrderReport struct {
	BetID  string  `json:"betId"`
	Status string  `json:"status"` // EXECUTABLE | EXECUTION_COMPLETE
	Profit float64 `json:"profit"`
}

const (
	OpAuthentication     = "authentication"
	OpStatus             = "status"
	OpMarketChange       = "mcm"
	OpOrderChange        = "ocm"
	OpMarketSubscription = "marketSubscription"
	OpOrderSubscription  = "orderSubscription"

	StatusSuccess = "SUCCESS"

	MarketStatusClosed = "CLOSED"

	OrderStatusComplete = "EXECUTION_COMPLETE"
	RunnerStatusWinner  = "WINNER"
)
