package bitget

import "errors"

// ErrUnavailable wraps any transport-level failure (network error,
// non-2xx status, malformed body). Callers treat it as "data unavailable
// this cycle" rather than a fault.
var ErrUnavailable = errors.New("bitget: unavailable")

// ErrRejected is returned when the exchange explicitly refuses an order.
var ErrRejected = errors.New("bitget: order rejected")

// Side is the Bitget mix order side.
type Side string

const (
	SideOpenLong   Side = "open_long"
	SideOpenShort  Side = "open_short"
	SideCloseLong  Side = "close_long"
	SideCloseShort Side = "close_short"
)

// HoldSide for trigger (TP/SL) orders.
type HoldSide string

const (
	HoldLong  HoldSide = "long"
	HoldShort HoldSide = "short"
)

// PlanType distinguishes take-profit from stop-loss trigger orders.
type PlanType string

const (
	PlanTakeProfit PlanType = "profit_plan"
	PlanStopLoss   PlanType = "loss_plan"
)

// OrderState is the exchange-reported order lifecycle state.
type OrderState string

const (
	OrderStateNew             OrderState = "new"
	OrderStatePartiallyFilled OrderState = "partially_filled"
	OrderStateFilled          OrderState = "filled"
	OrderStateCanceled        OrderState = "canceled"
)

// Ticker is the last-trade view of a symbol.
type Ticker struct {
	Symbol string
	Last   float64
}

// BookLevel is one order book level.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a depth snapshot, best levels first.
type OrderBook struct {
	Symbol string
	Bids   []BookLevel
	Asks   []BookLevel
}

// OrderResult is returned by PlaceMarketOrder. Simulated is true in
// dry-run mode, where no request reaches the exchange.
type OrderResult struct {
	OrderID   string
	ClientOID string
	Simulated bool
}

// OrderStatus is the polled fill state of an order.
type OrderStatus struct {
	OrderID      string
	State        OrderState
	AvgFillPrice float64
	FilledSize   float64
}

// apiResponse is the Bitget v1 envelope; data shape varies per endpoint.
type apiResponse struct {
	Code        string `json:"code"`
	Msg         string `json:"msg"`
	RequestTime int64  `json:"requestTime"`
}
