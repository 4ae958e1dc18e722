// Package executor drives one trade from intent to settled outcome.
// The coordinator owns the risk state and walks every admitted intent
// through the same sequence: risk check, slot reservation, order
// submission, bounded fill polling, settlement. Whatever happens after
// the reservation, the slot is released exactly once.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bitget-trading-bot/internal/bitget"
	"bitget-trading-bot/internal/events"
	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/retry"
	"bitget-trading-bot/internal/risk"
	"bitget-trading-bot/internal/signal"
	"bitget-trading-bot/internal/slots"
	"bitget-trading-bot/internal/target"
)

// Outcome is the terminal result of one execution attempt.
type Outcome string

const (
	OutcomeSettled     Outcome = "settled"      // filled, profit credited
	OutcomeRejected    Outcome = "rejected"     // exchange refused or errored
	OutcomeTimedOut    Outcome = "timed_out"    // fill never confirmed within the polling budget
	OutcomeRiskRefused Outcome = "risk_refused" // gate said no, no slot touched
	OutcomeNoSlot      Outcome = "no_slot"      // bucket cap reached
	OutcomeGoalGated   Outcome = "goal_gated"   // daily goal met, intent not perfect
)

// Config holds execution settings.
type Config struct {
	PollInterval time.Duration `json:"poll_interval"` // between fill status checks
	PollAttempts int           `json:"poll_attempts"` // total status checks before giving up
}

// DefaultConfig matches the exchange's typical market-order fill latency.
func DefaultConfig() Config {
	return Config{PollInterval: time.Second, PollAttempts: 20}
}

// Coordinator executes admitted intents. It is the only writer of the
// risk state.
type Coordinator struct {
	cfg     Config
	client  bitget.ExchangeClient
	ledger  *slots.Ledger
	gate    *risk.Gate
	tracker *target.Tracker
	bus     *events.Bus
	log     zerolog.Logger

	mu    sync.Mutex
	state *risk.State
}

// New creates a coordinator seeded with the starting equity.
func New(cfg Config, client bitget.ExchangeClient, ledger *slots.Ledger, gate *risk.Gate, tracker *target.Tracker, bus *events.Bus, startingEquity float64) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 20
	}
	return &Coordinator{
		cfg:     cfg,
		client:  client,
		ledger:  ledger,
		gate:    gate,
		tracker: tracker,
		bus:     bus,
		log:     logging.Component("executor"),
		state:   risk.NewState(startingEquity),
	}
}

// Execute runs one intent to a terminal outcome. price is the current
// last trade price and volatility the instrument's ATR as a fraction
// of price. Exchange failures settle as Rejected here so one symbol's
// trouble never propagates to the rest of the cycle.
func (c *Coordinator) Execute(ctx context.Context, mode string, intent *signal.Intent, price, volatility float64, leverage int) Outcome {
	log := c.log.With().
		Str("mode", mode).
		Str("symbol", intent.Symbol).
		Str("side", string(intent.Side)).
		Str("reason", string(intent.Reason)).
		Logger()

	// Once the day's goal is met only trend breaks are admitted.
	// Trading tightens, it does not stop.
	if c.tracker.IsDayGoalMet(mode) && !intent.Perfect() {
		log.Debug().Msg("goal met, holding out for perfect signals")
		return OutcomeGoalGated
	}

	c.mu.Lock()
	ok, reason := c.gate.Allow(c.state, volatility, time.Now())
	equity := c.state.Equity
	c.mu.Unlock()
	if !ok {
		log.Info().Str("refusal", reason).Msg("risk gate refused")
		return OutcomeRiskRefused
	}

	if !c.ledger.TryReserve(mode, intent.Symbol, intent.Side) {
		log.Debug().Msg("slot cap reached")
		return OutcomeNoSlot
	}
	defer c.ledger.Release(mode, intent.Symbol, intent.Side)

	stopDistance := price * intent.StopFraction
	size := c.gate.SizePosition(equity, price, stopDistance)
	notional := size * price
	if notional <= 0 {
		log.Warn().Float64("price", price).Msg("degenerate position size")
		return OutcomeRejected
	}

	c.bus.PublishSignal(mode, intent.Symbol, string(intent.Side), string(intent.Reason))

	order, err := c.client.PlaceMarketOrder(intent.Symbol, openSide(intent.Side), notional, leverage)
	if err != nil {
		log.Warn().Err(err).Msg("order not accepted")
		c.bus.PublishOrderRejected(mode, intent.Symbol, string(intent.Side), err.Error())
		c.settle(mode, intent, string(OutcomeRejected), 0)
		return OutcomeRejected
	}
	c.bus.PublishOrderPlaced(mode, intent.Symbol, string(intent.Side), order.OrderID, notional)
	log.Info().Str("order_id", order.OrderID).Float64("notional", notional).Int("leverage", leverage).Msg("order submitted")

	status, err := c.awaitFill(ctx, intent.Symbol, order.OrderID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", order.OrderID).Msg("fill not confirmed")
		c.bus.PublishOrderTimedOut(mode, intent.Symbol, string(intent.Side), order.OrderID)
		c.settle(mode, intent, string(OutcomeTimedOut), 0)
		return OutcomeTimedOut
	}

	fillPrice := status.AvgFillPrice
	if fillPrice <= 0 {
		fillPrice = price
	}
	c.bus.PublishOrderFilled(mode, intent.Symbol, string(intent.Side), order.OrderID, fillPrice)
	c.attachBrackets(intent, fillPrice, size)

	// Estimated settlement: the bracket's take-profit distance applied
	// to the filled notional.
	pnl := notional * intent.TakeFraction
	c.settle(mode, intent, string(OutcomeSettled), pnl)
	log.Info().Str("order_id", order.OrderID).Float64("fill_price", fillPrice).Float64("pnl", pnl).Msg("trade settled")
	return OutcomeSettled
}

// awaitFill polls order status on a fixed schedule until the order
// reports filled or the attempt budget runs out. A canceled order is a
// permanent failure; transient exchange errors consume attempts.
func (c *Coordinator) awaitFill(ctx context.Context, symbol, orderID string) (*bitget.OrderStatus, error) {
	var status *bitget.OrderStatus

	err := retry.Do(ctx, retry.Poll(c.cfg.PollInterval, uint64(c.cfg.PollAttempts)), func() error {
		s, err := c.client.GetOrderStatus(symbol, orderID)
		if err != nil {
			return err
		}
		switch s.State {
		case bitget.OrderStateFilled:
			status = s
			return nil
		case bitget.OrderStateCanceled:
			return retry.Permanent(fmt.Errorf("order %s canceled", orderID))
		default:
			return fmt.Errorf("order %s still %s", orderID, s.State)
		}
	})
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, errors.New("fill polling exhausted")
	}
	return status, nil
}

// attachBrackets places the take-profit and stop-loss trigger orders
// around the fill. Failures are logged and tolerated; the position
// stands either way.
func (c *Coordinator) attachBrackets(intent *signal.Intent, fillPrice, size float64) {
	hold := bitget.HoldLong
	tp := fillPrice * (1 + intent.TakeFraction)
	sl := fillPrice * (1 - intent.StopFraction)
	if intent.Side == signal.SideShort {
		hold = bitget.HoldShort
		tp = fillPrice * (1 - intent.TakeFraction)
		sl = fillPrice * (1 + intent.StopFraction)
	}

	if err := c.client.PlaceTriggerOrder(intent.Symbol, hold, bitget.PlanTakeProfit, tp, size); err != nil {
		c.log.Warn().Err(err).Str("symbol", intent.Symbol).Msg("take-profit trigger failed")
	}
	if err := c.client.PlaceTriggerOrder(intent.Symbol, hold, bitget.PlanStopLoss, sl, size); err != nil {
		c.log.Warn().Err(err).Str("symbol", intent.Symbol).Msg("stop-loss trigger failed")
	}
}

// settle books the outcome into the risk state and target tracker and
// publishes it. Crossing the daily target is announced once, on the
// trade that crosses it.
func (c *Coordinator) settle(mode string, intent *signal.Intent, outcome string, pnl float64) {
	c.mu.Lock()
	c.state.RecordOutcome(pnl, time.Now())
	c.mu.Unlock()

	if pnl != 0 {
		metBefore := c.tracker.IsDayGoalMet(mode)
		c.tracker.AddProfit(mode, pnl)
		if !metBefore && c.tracker.IsDayGoalMet(mode) {
			c.bus.PublishGoalMet(mode, c.tracker.CurrentTarget(mode))
		}
	}
	c.bus.PublishTradeSettled(mode, intent.Symbol, string(intent.Side), outcome, pnl)
}

// RefreshBalance pulls the account balance from the exchange into the
// risk state. Called at cycle start; transient failures keep the last
// known equity.
func (c *Coordinator) RefreshBalance() error {
	balance, err := c.client.GetAccountBalance()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.state.ObserveEquity(balance)
	c.mu.Unlock()
	return nil
}

// ResetDay clears the daily risk counters at rollover.
func (c *Coordinator) ResetDay() {
	c.mu.Lock()
	c.state.ResetDay()
	c.mu.Unlock()
}

// RiskState returns a copy of the current risk bookkeeping.
func (c *Coordinator) RiskState() risk.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.state
}

func openSide(s signal.Side) bitget.Side {
	if s == signal.SideShort {
		return bitget.SideOpenShort
	}
	return bitget.SideOpenLong
}
