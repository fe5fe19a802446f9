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

package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownQuery is returned by Lookup for names outside the catalog.
	ErrUnknownQuery = errors.New("unknown query")

	// ErrBinding is returned when a statement references a parameter the
	// caller did not supply. It is raised before a connection is acquired.
	ErrBinding = errors.New("parameter binding failed")
)

// Catalog query names.
const (
	OrderStatus            = "order_status"
	PaymentDetails         = "payment_details"
	ShippingInfo           = "shipping_info"
	InventoryStatus        = "inventory_status"
	AuditTrail             = "audit_trail"
	ErrorLog               = "error_log"
	CustomerInfo           = "customer_info"
	SystemEvents           = "system_events"
	OrderTimeline          = "order_timeline"
	RelatedOrders          = "related_orders"
	PerformanceMetrics     = "performance_metrics"
	SearchOrdersByCustomer = "search_orders_by_customer"
	SearchOrdersByStatus   = "search_orders_by_status"
	SearchMessageLogs      = "search_message_logs"
	GetMessageLogByID      = "get_message_log_by_id"
)

// ParamMaxResults is the row limit placeholder. The executor binds it; callers
// only choose the limit.
const ParamMaxResults = "max_results"

// TimestampFormat parses the YYYY-MM-DDTHH:MM:SS strings accepted at the HTTP
// boundary. Colons are doubled so the named-parameter parser leaves them alone.
const TimestampFormat = `'YYYY-MM-DD"T"HH24::MI::SS'`

// InputTimeLayout is the Go layout matching TimestampFormat.
const InputTimeLayout = "2006-01-02T15:04:05"

// Message log template slots.
const (
	SlotBlobFields       = "blob_fields"
	SlotUserData1Filter  = "user_data1_filter"
	SlotUserData2Filter  = "user_data2_filter"
	SlotUserData3Filter  = "user_data3_filter"
	SlotOrderIDFilter    = "order_id_filter"
	SlotCustomerIDFilter = "customer_id_filter"
	SlotOperationFilter  = "operation_filter"
	SlotDateFilter       = "date_filter"
)

// Kind distinguishes fixed statements from ones with substitution slots.
type Kind int

const (
	Static Kind = iota
	Templated
)

func (k Kind) String() string {
	if k == Templated {
		return "templated"
	}
	return "static"
}

// Definition is an immutable named statement.
type Definition struct {
	Name   string
	SQL    string
	Kind   Kind
	Params []string // parameters referenced by the statement text
	Slots  []string // substitution points, templated definitions only
}

// Render fills the definition's slots. Slots without a fragment render empty;
// a fragment for a slot the definition does not declare is an error.
func (d Definition) Render(fragments map[string]string) (string, error) {
	for slot := range fragments {
		if !d.hasSlot(slot) {
			return "", fmt.Errorf("query %s has no slot %q", d.Name, slot)
		}
	}
	if d.Kind == Static {
		return d.SQL, nil
	}

	pairs := make([]string, 0, len(d.Slots)*2)
	for _, slot := range d.Slots {
		pairs = append(pairs, "{"+slot+"}", fragments[slot])
	}
	return strings.NewReplacer(pairs...).Replace(d.SQL), nil
}

func (d Definition) hasSlot(slot string) bool {
	for _, s := range d.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Catalog is the fixed set of named statements. It has no registration API;
// everything is defined in NewCatalog.
type Catalog struct {
	defs map[string]Definition
}

// NewCatalog builds the catalog with table references qualified by schema.
func NewCatalog(schema string) *Catalog {
	c := &Catalog{defs: make(map[string]Definition)}

	static := func(name, sqlText string) {
		sqlText = strings.ReplaceAll(sqlText, "{schema}", schema)
		c.defs[name] = Definition{Name: name, SQL: sqlText, Kind: Static, Params: placeholderNames(sqlText)}
	}

	static(OrderStatus, `
		SELECT order_id, customer_id, status, total_amount,
		       created_date, last_updated, order_type, priority
		FROM {schema}.orders
		WHERE order_id = :order_id`)

	static(PaymentDetails, `
		SELECT payment_id, order_id, status, amount, payment_method,
		       transaction_id, created_date, processed_date,
		       error_code, error_message, retry_count
		FROM {schema}.payments
		WHERE order_id = :order_id
		ORDER BY created_date DESC`)

	static(ShippingInfo, `
		SELECT shipping_id, order_id, status, tracking_number,
		       carrier, service_type, shipped_date, expected_delivery,
		       actual_delivery, shipping_address, special_instructions
		FROM {schema}.shipping
		WHERE order_id = :order_id`)

	static(InventoryStatus, `
		SELECT item_id, order_id, product_id, sku, quantity_ordered,
		       quantity_allocated, quantity_shipped, warehouse_location,
		       reservation_status, allocation_date, shipped_date
		FROM {schema}.inventory_reservations
		WHERE order_id = :order_id`)

	static(AuditTrail, `
		SELECT log_id, order_id, action_type, action_details,
		       performed_by, performed_at, system_component,
		       result_status, error_details, session_id
		FROM {schema}.audit_log
		WHERE order_id = :order_id
		ORDER BY performed_at DESC
		FETCH FIRST :max_results ROWS ONLY`)

	static(ErrorLog, `
		SELECT error_id, order_id, error_code, error_message,
		       error_timestamp, component, severity, stack_trace,
		       user_context, correlation_id
		FROM {schema}.error_log
		WHERE order_id = :order_id
		ORDER BY error_timestamp DESC
		FETCH FIRST :max_results ROWS ONLY`)

	static(CustomerInfo, `
		SELECT customer_id, customer_type, account_status, tier,
		       created_date, last_login_date, risk_score,
		       contact_preferences, billing_address, shipping_address
		FROM {schema}.customers
		WHERE customer_id = :customer_id`)

	static(SystemEvents, `
		SELECT event_id, order_id, event_type, event_data,
		       event_timestamp, source_system, correlation_id,
		       processing_status, retry_count
		FROM {schema}.system_events
		WHERE order_id = :order_id
		ORDER BY event_timestamp DESC
		FETCH FIRST :max_results ROWS ONLY`)

	static(OrderTimeline, `
		SELECT 'ORDER' AS event_source,
		       created_date AS event_timestamp,
		       'Order Created' AS event_description,
		       status AS event_data
		FROM {schema}.orders WHERE order_id = :order_id
		UNION ALL
		SELECT 'PAYMENT' AS event_source,
		       created_date AS event_timestamp,
		       'Payment ' || status AS event_description,
		       amount || ' via ' || payment_method AS event_data
		FROM {schema}.payments WHERE order_id = :order_id
		UNION ALL
		SELECT 'SHIPPING' AS event_source,
		       shipped_date AS event_timestamp,
		       'Shipment ' || status AS event_description,
		       tracking_number AS event_data
		FROM {schema}.shipping WHERE order_id = :order_id AND shipped_date IS NOT NULL
		UNION ALL
		SELECT 'AUDIT' AS event_source,
		       performed_at AS event_timestamp,
		       action_type AS event_description,
		       performed_by AS event_data
		FROM {schema}.audit_log WHERE order_id = :order_id
		ORDER BY event_timestamp DESC`)

	static(RelatedOrders, `
		SELECT DISTINCT o.order_id, o.status, o.created_date, o.customer_id
		FROM {schema}.orders o
		WHERE o.customer_id = (
		    SELECT customer_id FROM {schema}.orders WHERE order_id = :order_id
		)
		AND o.order_id <> :order_id
		AND o.created_date >= (
		    SELECT created_date - INTERVAL '30' DAY
		    FROM {schema}.orders WHERE order_id = :order_id
		)
		ORDER BY o.created_date DESC
		FETCH FIRST 10 ROWS ONLY`)

	static(PerformanceMetrics, `
		SELECT component_name, avg_response_time_ms, error_rate_percent,
		       last_updated, status
		FROM {schema}.system_performance
		WHERE last_updated >= CURRENT_TIMESTAMP - INTERVAL '1' HOUR
		ORDER BY error_rate_percent DESC`)

	static(SearchOrdersByCustomer, `
		SELECT order_id, status, total_amount, created_date, order_type
		FROM {schema}.orders
		WHERE customer_id = :customer_id
		ORDER BY created_date DESC
		FETCH FIRST :max_results ROWS ONLY`)

	static(SearchOrdersByStatus, `
		SELECT order_id, customer_id, status, total_amount, created_date, last_updated
		FROM {schema}.orders
		WHERE status = :status
		AND created_date >= TO_TIMESTAMP(:start_date, `+TimestampFormat+`)
		ORDER BY created_date DESC
		FETCH FIRST :max_results ROWS ONLY`)

	static(GetMessageLogByID, `
		SELECT `+MessageLogColumns+`, `+MessageLogBlobColumns+`
		FROM {schema}.CWMESSAGELOG
		WHERE MSGID = :msgid`)

	searchLogs := strings.ReplaceAll(`
		SELECT `+MessageLogColumns+`
		       {blob_fields}
		FROM {schema}.CWMESSAGELOG
		WHERE 1=1
		{user_data1_filter}
		{user_data2_filter}
		{user_data3_filter}
		{order_id_filter}
		{customer_id_filter}
		{operation_filter}
		{date_filter}
		ORDER BY CREATION_TIME DESC
		FETCH FIRST :max_results ROWS ONLY`, "{schema}", schema)
	c.defs[SearchMessageLogs] = Definition{
		Name:   SearchMessageLogs,
		SQL:    searchLogs,
		Kind:   Templated,
		Params: []string{ParamMaxResults},
		Slots: []string{
			SlotBlobFields, SlotUserData1Filter, SlotUserData2Filter, SlotUserData3Filter,
			SlotOrderIDFilter, SlotCustomerIDFilter, SlotOperationFilter, SlotDateFilter,
		},
	}

	return c
}

// Lookup returns the named definition.
func (c *Catalog) Lookup(name string) (Definition, error) {
	def, ok := c.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	return def, nil
}

// Names lists the catalog in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// placeholderNames returns the distinct :name parameters in sqlText, in order
// of first use. "::" is an escaped colon, as in sqlx.
func placeholderNames(sqlText string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(sqlText); i++ {
		if sqlText[i] != ':' {
			continue
		}
		if i+1 < len(sqlText) && sqlText[i+1] == ':' {
			i++
			continue
		}
		j := i + 1
		for j < len(sqlText) && isNameByte(sqlText[j]) {
			j++
		}
		if j > i+1 {
			name := sqlText[i+1 : j]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		i = j - 1
	}
	return names
}

func isNameByte(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
