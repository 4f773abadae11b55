package betfair

// types.go — JSON types of the betting REST API (API-NG).

type marketFilter struct {
	EventTypeIDs    []string `json:"eventTypeIds,omitempty"`
	MarketTypeCodes []string `json:"marketTypeCodes,omitempty"`
}

type catalogueRequest struct {
	Filter           marketFilter `json:"filter"`
	MarketProjection []string     `json:"marketProjection"`
	MaxResults       int          `json:"maxResults"`
	Sort             string       `json:"sort,omitempty"`
}

type catalogueEntry struct {
	MarketID string `json:"marketId"`
	Event    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"event"`
	Runners []struct {
		SelectionID int64  `json:"selectionId"`
		RunnerName  string `json:"runnerName"`
	} `json:"runners"`
}

type limitOrder struct {
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	PersistenceType string  `json:"persistenceType"`
}

type placeInstruction struct {
	OrderType   string     `json:"orderType"`
	SelectionID int64      `json:"selectionId"`
	Side        string     `json:"side"`
	LimitOrder  limitOrder `json:"limitOrder"`
}

type placeOrdersRequest struct {
	MarketID     string             `json:"marketId"`
	Instructions []placeInstruction `json:"instructions"`
}

type instructionReport struct {
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode,omitempty"`
	BetID     string `json:"betId,omitempty"`
}

type placeOrdersResponse struct {
	Status             string              `json:"status"`
	ErrorCode          string              `json:"errorCode,omitempty"`
	InstructionReports []instructionReport `json:"instructionReports"`
}

type replaceInstruction struct {
	BetID    string  `json:"betId"`
	NewPrice float64 `json:"newPrice"`
	NewSize  float64 `json:"newSize"`
}

type replaceOrdersRequest struct {
	MarketID     string               `json:"marketId"`
	Instructions []replaceInstruction `json:"instructions"`
}

type replaceOrdersResponse struct {
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode,omitempty"`
}
