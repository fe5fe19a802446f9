// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"eocdb/platform/query"
	"eocdb/platform/shared/logger"
)

// Per-category caps for the aggregate fetch.
const (
	auditTrailLimit   = 50
	errorLogLimit     = 20
	systemEventsLimit = 30
)

// DataSummary counts the rows of each aggregate category.
type DataSummary struct {
	TotalPayments       int `json:"total_payments"`
	TotalShipments      int `json:"total_shipments"`
	TotalInventoryItems int `json:"total_inventory_items"`
	TotalAuditEntries   int `json:"total_audit_entries"`
	TotalErrors         int `json:"total_errors"`
	TotalEvents         int `json:"total_events"`
	TimelineEntries     int `json:"timeline_entries"`
	RelatedOrdersCount  int `json:"related_orders_count"`
}

// CompleteOrder is everything known about one order, assembled per request.
// When OrderExists is false only OrderID is set. Categories with no rows are
// empty lists.
type CompleteOrder struct {
	OrderExists    bool         `json:"order_exists"`
	OrderID        string       `json:"order_id"`
	OrderInfo      query.Row    `json:"order_info,omitempty"`
	CustomerInfo   query.Row    `json:"customer_info"`
	Payments       []query.Row  `json:"payments"`
	Shipping       []query.Row  `json:"shipping"`
	Inventory      []query.Row  `json:"inventory"`
	AuditTrail     []query.Row  `json:"audit_trail"`
	ErrorLog       []query.Row  `json:"error_log"`
	SystemEvents   []query.Row  `json:"system_events"`
	Timeline       []query.Row  `json:"timeline"`
	RelatedOrders  []query.Row  `json:"related_orders"`
	DataSummary    *DataSummary `json:"data_summary,omitempty"`
	QueryTimestamp string       `json:"query_timestamp,omitempty"`
}

// GetCompleteOrder fetches the order row first and, only when it exists,
// every related category concurrently. The first failing statement cancels
// the rest and its error is returned; no partial aggregate is produced.
func (s *Service) GetCompleteOrder(ctx context.Context, orderID string) (*CompleteOrder, error) {
	requestID := logger.RequestID(ctx)

	status, err := s.exec.Run(ctx, query.OrderStatus, map[string]interface{}{"order_id": orderID})
	if err != nil {
		return nil, err
	}
	order := status.First()
	if order == nil {
		return &CompleteOrder{OrderID: orderID}, nil
	}

	co := &CompleteOrder{
		OrderExists: true,
		OrderID:     orderID,
		OrderInfo:   order,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)

	fetch := func(dst *[]query.Row, name string, limit int) {
		g.Go(func() error {
			params := map[string]interface{}{"order_id": orderID}
			if limit > 0 {
				params[query.ParamMaxResults] = limit
			}
			result, err := s.exec.Run(gctx, name, params)
			if err != nil {
				return err
			}
			*dst = result.Rows
			return nil
		})
	}

	fetch(&co.Payments, query.PaymentDetails, 0)
	fetch(&co.Shipping, query.ShippingInfo, 0)
	fetch(&co.Inventory, query.InventoryStatus, 0)
	fetch(&co.AuditTrail, query.AuditTrail, auditTrailLimit)
	fetch(&co.ErrorLog, query.ErrorLog, errorLogLimit)
	fetch(&co.SystemEvents, query.SystemEvents, systemEventsLimit)
	fetch(&co.Timeline, query.OrderTimeline, 0)
	fetch(&co.RelatedOrders, query.RelatedOrders, 0)

	if customerID := order.String("customer_id"); customerID != "" {
		g.Go(func() error {
			result, err := s.exec.Run(gctx, query.CustomerInfo, map[string]interface{}{"customer_id": customerID})
			if err != nil {
				return err
			}
			co.CustomerInfo = result.First()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Error(requestID, "Aggregate order fetch failed", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, err
	}

	co.DataSummary = &DataSummary{
		TotalPayments:       len(co.Payments),
		TotalShipments:      len(co.Shipping),
		TotalInventoryItems: len(co.Inventory),
		TotalAuditEntries:   len(co.AuditTrail),
		TotalErrors:         len(co.ErrorLog),
		TotalEvents:         len(co.SystemEvents),
		TimelineEntries:     len(co.Timeline),
		RelatedOrdersCount:  len(co.RelatedOrders),
	}
	co.QueryTimestamp = time.Now().Format(time.RFC3339Nano)
	return co, nil
}

// OrderSearch selects orders by customer, or by status created since a date.
type OrderSearch struct {
	CustomerID string `json:"customer_id,omitempty"`
	Status     string `json:"status,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	Limit      int    `json:"limit"`
}

// SearchOrders uses customer_id when set, otherwise status with start_date.
// Any other combination is ErrInvalidCriteria.
func (s *Service) SearchOrders(ctx context.Context, c OrderSearch) (*query.Result, error) {
	limit := query.ClampLimit(c.Limit, DefaultLimit, MaxLimit)

	switch {
	case c.CustomerID != "":
		return s.exec.Run(ctx, query.SearchOrdersByCustomer, map[string]interface{}{
			"customer_id":         c.CustomerID,
			query.ParamMaxResults: limit,
		})
	case c.Status != "" && c.StartDate != "":
		return s.exec.Run(ctx, query.SearchOrdersByStatus, map[string]interface{}{
			"status":              c.Status,
			"start_date":          c.StartDate,
			query.ParamMaxResults: limit,
		})
	}
	return nil, ErrInvalidCriteria
}

// OrderTimeline merges order, payment, shipping and audit events, newest
// first.
func (s *Service) OrderTimeline(ctx context.Context, orderID string) (*query.Result, error) {
	return s.exec.Run(ctx, query.OrderTimeline, map[string]interface{}{"order_id": orderID})
}

// SystemPerformance returns component metrics updated in the last hour.
func (s *Service) SystemPerformance(ctx context.Context) (*query.Result, error) {
	return s.exec.Run(ctx, query.PerformanceMetrics, nil)
}
