package models

import "time"

// CashFundTicker is the synthetic money-market instrument that absorbs all
// idle cash. Sweep orders are booked against it with zero commission.
const CashFundTicker = "CASH_FUND"

// OrderType is the direction of an order.
type OrderType string

const (
	OrderBuy  OrderType = "buy"
	OrderSell OrderType = "sell"
)

// OrderStatus is the lifecycle state of an order. A registered order is
// mutable only by the execution engine on its scheduled day; completed and
// not-completed are terminal.
type OrderStatus string

const (
	OrderRegistered   OrderStatus = "registered"
	OrderCompleted    OrderStatus = "completed"
	OrderNotCompleted OrderStatus = "not-completed"
)

// Order purposes emitted by the rebalancing protocol and the execution
// engine's cash sweep.
const (
	PurposeCloseLong      = "close long"
	PurposeEnterShort     = "enter short"
	PurposeRebalanceShort = "rebalance short"
	PurposeRebalanceLong  = "rebalance long"
	PurposeCloseShort     = "close short"
	PurposeEnterLong      = "enter long"
	PurposeCashMovement   = "cash movement"
)

// Order represents a requested or executed trade. Price, Value, Commission
// and Cost are filled in by the execution engine when the order completes.
type Order struct {
	Day        int
	Date       time.Time
	Type       OrderType
	Ticker     string
	Quantity   float64 // signed, nonzero
	Price      float64
	Value      float64 // quantity × price
	Commission float64
	Cost       float64 // value + commission
	Status     OrderStatus
	Purpose    string
	Message    string
}
