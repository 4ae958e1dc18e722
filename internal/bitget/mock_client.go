package bitget

import (
	"fmt"
	"strconv"
	"sync"
)

// MockClient implements ExchangeClient for tests and paper runs. Orders
// fill after a configurable number of status polls so the coordinator's
// polling loop can be exercised deterministically.
type MockClient struct {
	mu sync.Mutex

	balance     float64
	prices      map[string]float64
	books       map[string]*OrderBook
	nextOrderID int

	// FillAfterPolls controls how many GetOrderStatus calls return
	// "new" before an order reports filled. Negative means never fill.
	FillAfterPolls int

	// RejectOrders makes PlaceMarketOrder return ErrRejected.
	RejectOrders bool

	// Unavailable makes every call fail with ErrUnavailable.
	Unavailable bool

	orders   map[string]*mockOrder
	Triggers []MockTrigger
}

type mockOrder struct {
	symbol string
	side   Side
	price  float64
	size   float64
	polls  int
}

// MockTrigger records a PlaceTriggerOrder call.
type MockTrigger struct {
	Symbol       string
	HoldSide     HoldSide
	PlanType     PlanType
	TriggerPrice float64
	Size         float64
}

// NewMockClient creates a mock with the given starting equity.
func NewMockClient(balance float64) *MockClient {
	return &MockClient{
		balance:     balance,
		prices:      make(map[string]float64),
		books:       make(map[string]*OrderBook),
		nextOrderID: 1000,
		orders:      make(map[string]*mockOrder),
	}
}

// SetPrice sets the ticker price for a symbol.
func (c *MockClient) SetPrice(symbol string, price float64) {
	c.mu.Lock()
	c.prices[symbol] = price
	c.mu.Unlock()
}

// SetBook sets the depth snapshot for a symbol.
func (c *MockClient) SetBook(symbol string, book *OrderBook) {
	c.mu.Lock()
	c.books[symbol] = book
	c.mu.Unlock()
}

// SetBalance overrides the account equity.
func (c *MockClient) SetBalance(balance float64) {
	c.mu.Lock()
	c.balance = balance
	c.mu.Unlock()
}

// PlacedOrders returns how many market orders were accepted.
func (c *MockClient) PlacedOrders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

func (c *MockClient) GetTicker(symbol string) (*Ticker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return nil, fmt.Errorf("%w: mock offline", ErrUnavailable)
	}
	price, ok := c.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s", ErrUnavailable, symbol)
	}
	return &Ticker{Symbol: symbol, Last: price}, nil
}

func (c *MockClient) GetOrderBook(symbol string, depth int) (*OrderBook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return nil, fmt.Errorf("%w: mock offline", ErrUnavailable)
	}
	book, ok := c.books[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no book for %s", ErrUnavailable, symbol)
	}
	return book, nil
}

func (c *MockClient) GetAccountBalance() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return 0, fmt.Errorf("%w: mock offline", ErrUnavailable)
	}
	return c.balance, nil
}

func (c *MockClient) PlaceMarketOrder(symbol string, side Side, notionalUSDT float64, leverage int) (*OrderResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return nil, fmt.Errorf("%w: mock offline", ErrUnavailable)
	}
	if c.RejectOrders {
		return nil, fmt.Errorf("%w: mock rejection", ErrRejected)
	}

	c.nextOrderID++
	id := strconv.Itoa(c.nextOrderID)
	c.orders[id] = &mockOrder{
		symbol: symbol,
		side:   side,
		price:  c.prices[symbol],
		size:   notionalUSDT,
	}
	return &OrderResult{OrderID: id, ClientOID: "mock-" + id}, nil
}

func (c *MockClient) PlaceTriggerOrder(symbol string, holdSide HoldSide, planType PlanType, triggerPrice, size float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return fmt.Errorf("%w: mock offline", ErrUnavailable)
	}
	c.Triggers = append(c.Triggers, MockTrigger{
		Symbol:       symbol,
		HoldSide:     holdSide,
		PlanType:     planType,
		TriggerPrice: triggerPrice,
		Size:         size,
	})
	return nil
}

func (c *MockClient) GetOrderStatus(symbol, orderID string) (*OrderStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return nil, fmt.Errorf("%w: mock offline", ErrUnavailable)
	}

	order, ok := c.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown order %s", ErrUnavailable, orderID)
	}

	order.polls++
	if c.FillAfterPolls < 0 || order.polls <= c.FillAfterPolls {
		return &OrderStatus{OrderID: orderID, State: OrderStateNew}, nil
	}
	return &OrderStatus{
		OrderID:      orderID,
		State:        OrderStateFilled,
		AvgFillPrice: order.price,
		FilledSize:   order.size,
	}, nil
}
