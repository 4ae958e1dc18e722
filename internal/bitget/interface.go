package bitget

// ExchangeClient is the REST collaborator used by the execution
// coordinator and scheduler. Every method returns an explicit error
// (wrapping ErrUnavailable or ErrRejected) instead of panicking; a
// failed call means "skip this cycle", never "crash".
type ExchangeClient interface {
	// GetTicker returns the latest trade price for a symbol.
	GetTicker(symbol string) (*Ticker, error)

	// GetOrderBook returns a depth snapshot with up to depth levels per side.
	GetOrderBook(symbol string, depth int) (*OrderBook, error)

	// GetAccountBalance returns the account equity in USDT.
	GetAccountBalance() (float64, error)

	// PlaceMarketOrder opens a position with the given notional size (USDT)
	// and leverage. In dry-run mode the result is simulated.
	PlaceMarketOrder(symbol string, side Side, notionalUSDT float64, leverage int) (*OrderResult, error)

	// PlaceTriggerOrder attaches a take-profit or stop-loss trigger.
	PlaceTriggerOrder(symbol string, holdSide HoldSide, planType PlanType, triggerPrice, size float64) error

	// GetOrderStatus polls the fill state of a previously placed order.
	GetOrderStatus(symbol, orderID string) (*OrderStatus, error)
}
