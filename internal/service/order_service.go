package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/pkg/printify"
)

// StoreOrderRepository reads placed orders from the store database.
type StoreOrderRepository interface {
	GetOrder(orderID int64) (*models.StoreOrder, error)
	GetItems(orderID int64) ([]models.StoreOrderItem, error)
	GetAddress(addressID int64) (*models.StoreAddress, error)
}

// OrderSubmitter creates fulfilment orders at the catalog source.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, order *printify.OrderRequest) (*printify.OrderResponse, error)
}

// OrderService forwards placed store orders to the catalog source.
type OrderService struct {
	orders    StoreOrderRepository
	submitter OrderSubmitter
}

// NewOrderService creates an OrderService.
func NewOrderService(orders StoreOrderRepository, submitter OrderSubmitter) *OrderService {
	return &OrderService{orders: orders, submitter: submitter}
}

// OrderResult reports what happened to a placed order.
type OrderResult struct {
	OrderID         int64  `json:"orderId"`
	ExternalOrderID string `json:"externalOrderId,omitempty"`
	LineItems       int    `json:"lineItems"`
	SkippedItems    int    `json:"skippedItems"`
	Skipped         bool   `json:"skipped"`
}

// HandleOrderPlaced forwards the imported lines of a store order. Lines whose
// product did not come from the catalog are left out; an order without any
// such line is skipped.
func (s *OrderService) HandleOrderPlaced(ctx context.Context, orderID int64) (*OrderResult, error) {
	order, err := s.orders.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	items, err := s.orders.GetItems(orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	res := &OrderResult{OrderID: orderID}
	req := &printify.OrderRequest{
		ExternalID:               strconv.FormatInt(orderID, 10),
		Label:                    order.SID,
		ShippingMethod:           1,
		SendShippingNotification: true,
	}
	for _, it := range items {
		if it.ExternalProductID == nil || it.ExternalVariantID == nil {
			res.SkippedItems++
			continue
		}
		variantID, err := strconv.ParseInt(*it.ExternalVariantID, 10, 64)
		if err != nil {
			res.SkippedItems++
			log.Warn().Str("variant_id", *it.ExternalVariantID).Msg("order item has a non-numeric catalog variant id")
			continue
		}
		req.LineItems = append(req.LineItems, printify.LineItem{
			ProductID: *it.ExternalProductID,
			VariantID: variantID,
			Quantity:  it.Qty,
		})
	}
	res.LineItems = len(req.LineItems)
	if res.LineItems == 0 {
		res.Skipped = true
		log.Info().Int64("order_id", orderID).Msg("order has no catalog items, not forwarded")
		return res, nil
	}

	addr, err := s.orders.GetAddress(order.ShippingAddressID)
	if err != nil {
		return nil, fmt.Errorf("load shipping address: %w", err)
	}
	req.AddressTo = printify.Address{
		FirstName: addr.FullName,
		Email:     order.CustomerEmail,
		Phone:     addr.Telephone,
		Country:   addr.Country,
		Region:    deref(addr.ProvinceName),
		Address1:  addr.Address1,
		Address2:  deref(addr.Address2),
		City:      addr.City,
		Zip:       addr.Postcode,
	}

	resp, err := s.submitter.CreateOrder(ctx, req)
	if err != nil {
		return nil, classifyCatalogError("create catalog order", err)
	}
	res.ExternalOrderID = resp.ID
	log.Info().Int64("order_id", orderID).Str("external_order_id", resp.ID).Int("line_items", res.LineItems).Msg("order forwarded")
	return res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
