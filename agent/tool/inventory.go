package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/ledger"
)

// FallbackUnitCost prices a restock when the catalog price is not positive.
var FallbackUnitCost = decimal.RequireFromString("0.10")

type StockCheck struct {
	ItemName string `json:"item_name"`
	Stock    int64  `json:"stock"`
	Found    bool   `json:"found"`
}

type RestockOrder struct {
	ItemName string `json:"item_name"`
	Quantity int64  `json:"quantity"`
}

type RestockReceipt struct {
	ItemName      string          `json:"item_name"`
	Quantity      int64           `json:"quantity"`
	Cost          decimal.Decimal `json:"cost"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Skipped       string          `json:"skipped,omitempty"`
}

type DeliveryEstimate struct {
	Quantity   int64     `json:"quantity"`
	OrderDate  time.Time `json:"order_date"`
	DeliveryBy time.Time `json:"delivery_by"`
}

type mapItemsArgs struct {
	Terms []string `json:"terms"`
}

type checkStockArgs struct {
	ItemNames []string `json:"item_names"`
	AsOf      string   `json:"as_of"`
}

type restockArgs struct {
	Orders    []RestockOrder `json:"orders"`
	OrderDate string         `json:"order_date"`
}

type deliveryArgs struct {
	Quantity  int64  `json:"quantity"`
	OrderDate string `json:"order_date"`
}

type auditArgs struct {
	AsOf string `json:"as_of"`
}

func InventoryTools(deps Deps) []Definition {
	return []Definition{
		{
			Name: ToolInventoryMapItems,
			Desc: "Map free-text item descriptions to canonical catalog names.",
			Params: map[string]*schema.ParameterInfo{
				"terms": {Type: schema.Array, Desc: "Item descriptions", Required: true, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[mapItemsArgs](raw)
				if err != nil {
					return nil, err
				}
				if deps.Matcher == nil {
					return nil, fmt.Errorf("%w: matcher is not configured", contractx.ErrValidation)
				}
				return deps.Matcher.Map(ctx, args.Terms), nil
			},
		},
		{
			Name: ToolInventoryCheckStock,
			Desc: "Return the stock of each catalog item as of a date.",
			Params: map[string]*schema.ParameterInfo{
				"item_names": {Type: schema.Array, Desc: "Canonical item names", Required: true, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
				"as_of":      {Type: schema.String, Desc: "Cutoff date, YYYY-MM-DD", Required: true},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[checkStockArgs](raw)
				if err != nil {
					return nil, err
				}
				asOf, err := parseDate(args.AsOf)
				if err != nil {
					return nil, err
				}
				out := make([]StockCheck, 0, len(args.ItemNames))
				for _, name := range args.ItemNames {
					snap, err := deps.Ledger.StockLevel(ctx, name, asOf)
					switch {
					case err == nil:
						out = append(out, StockCheck{ItemName: name, Stock: snap.CurrentStock, Found: true})
					case errors.Is(err, contractx.ErrStockNotFound):
						out = append(out, StockCheck{ItemName: name})
					default:
						log.Warn().Err(err).Str("item", name).Msg("stock lookup failed, assuming zero")
						out = append(out, StockCheck{ItemName: name})
					}
				}
				return out, nil
			},
		},
		{
			Name: ToolInventoryRestock,
			Desc: "Place supplier stock orders; each order is charged at the catalog unit price.",
			Params: map[string]*schema.ParameterInfo{
				"orders": {
					Type:     schema.Array,
					Desc:     "Stock orders",
					Required: true,
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"item_name": {Type: schema.String, Required: true},
							"quantity":  {Type: schema.Integer, Required: true},
						},
					},
				},
				"order_date": {Type: schema.String, Desc: "Order date, YYYY-MM-DD", Required: true},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[restockArgs](raw)
				if err != nil {
					return nil, err
				}
				orderDate, err := parseDate(args.OrderDate)
				if err != nil {
					return nil, err
				}
				out := make([]RestockReceipt, 0, len(args.Orders))
				for _, order := range args.Orders {
					out = append(out, restock(ctx, deps, order, orderDate))
				}
				return out, nil
			},
		},
		{
			Name: ToolInventoryDeliveryEstimate,
			Desc: "Estimate the supplier delivery date for an order quantity.",
			Params: map[string]*schema.ParameterInfo{
				"quantity":   {Type: schema.Integer, Desc: "Units ordered", Required: true},
				"order_date": {Type: schema.String, Desc: "Order date, YYYY-MM-DD", Required: true},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[deliveryArgs](raw)
				if err != nil {
					return nil, err
				}
				orderDate, err := parseDate(args.OrderDate)
				if err != nil {
					return nil, err
				}
				return DeliveryEstimate{
					Quantity:   args.Quantity,
					OrderDate:  orderDate,
					DeliveryBy: ledger.SupplierDeliveryDate(orderDate, args.Quantity),
				}, nil
			},
		},
		{
			Name: ToolInventoryAudit,
			Desc: "List every item with positive stock as of a date.",
			Params: map[string]*schema.ParameterInfo{
				"as_of": {Type: schema.String, Desc: "Cutoff date, YYYY-MM-DD", Required: true},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[auditArgs](raw)
				if err != nil {
					return nil, err
				}
				asOf, err := parseDate(args.AsOf)
				if err != nil {
					return nil, err
				}
				return deps.Ledger.AllInventory(ctx, asOf)
			},
		},
	}
}

func restock(ctx context.Context, deps Deps, order RestockOrder, orderDate time.Time) RestockReceipt {
	receipt := RestockReceipt{ItemName: order.ItemName, Quantity: order.Quantity}

	item := deps.Catalog.Resolve(order.ItemName)
	unit, ok := deps.Catalog.Price(item)
	if !ok {
		receipt.Skipped = catalogx.NotFound
		return receipt
	}
	if order.Quantity <= 0 {
		receipt.Skipped = "quantity must be positive"
		return receipt
	}

	if !unit.IsPositive() {
		unit = FallbackUnitCost
	}
	receipt.Cost = unit.Mul(decimal.NewFromInt(order.Quantity)).Round(2)

	id, err := deps.Ledger.CreateTransaction(ctx, contractx.Transaction{
		ItemName: item.Name,
		Category: contractx.CategoryStockOrders,
		Quantity: order.Quantity,
		Amount:   receipt.Cost,
		Date:     orderDate,
	})
	if err != nil {
		log.Warn().Err(err).Str("item", item.Name).Msg("restock failed")
		receipt.Skipped = err.Error()
		return receipt
	}
	receipt.TransactionID = id
	return receipt
}
