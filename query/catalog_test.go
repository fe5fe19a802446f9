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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogNames(t *testing.T) {
	c := NewCatalog("logs")

	names := c.Names()
	assert.Len(t, names, 15)
	for _, name := range []string{
		OrderStatus, PaymentDetails, ShippingInfo, InventoryStatus, AuditTrail,
		ErrorLog, CustomerInfo, SystemEvents, OrderTimeline, RelatedOrders,
		PerformanceMetrics, SearchOrdersByCustomer, SearchOrdersByStatus,
		SearchMessageLogs, GetMessageLogByID,
	} {
		assert.Contains(t, names, name)
	}
}

func TestCatalogLookupUnknown(t *testing.T) {
	_, err := NewCatalog("logs").Lookup("drop_everything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownQuery))
}

func TestCatalogQualifiesSchema(t *testing.T) {
	c := NewCatalog("ops")

	def, err := c.Lookup(OrderStatus)
	require.NoError(t, err)
	assert.Contains(t, def.SQL, "FROM ops.orders")
	assert.NotContains(t, def.SQL, "{schema}")
	assert.Equal(t, Static, def.Kind)
	assert.Equal(t, []string{"order_id"}, def.Params)

	def, err = c.Lookup(GetMessageLogByID)
	require.NoError(t, err)
	assert.Contains(t, def.SQL, "ops.CWMESSAGELOG")
	assert.Equal(t, []string{"msgid"}, def.Params)
}

func TestCatalogParams(t *testing.T) {
	c := NewCatalog("logs")

	tests := []struct {
		name   string
		params []string
	}{
		{AuditTrail, []string{"order_id", ParamMaxResults}},
		{OrderTimeline, []string{"order_id"}},
		{RelatedOrders, []string{"order_id"}},
		{PerformanceMetrics, nil},
		{SearchOrdersByCustomer, []string{"customer_id", ParamMaxResults}},
		{SearchOrdersByStatus, []string{"status", "start_date", ParamMaxResults}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := c.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.params, def.Params)
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	def, err := NewCatalog("logs").Lookup(SearchMessageLogs)
	require.NoError(t, err)
	assert.Equal(t, Templated, def.Kind)
	assert.Equal(t, "templated", def.Kind.String())

	sqlText, err := def.Render(map[string]string{
		SlotOrderIDFilter: "AND ORDER_ID = :order_id",
	})
	require.NoError(t, err)
	assert.Contains(t, sqlText, "AND ORDER_ID = :order_id")
	assert.NotContains(t, sqlText, "{")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sqlText), "FETCH FIRST :max_results ROWS ONLY"))

	bare, err := def.Render(nil)
	require.NoError(t, err)
	assert.NotContains(t, bare, "{")
	assert.Contains(t, bare, "WHERE 1=1")
}

func TestRenderRejectsUnknownSlot(t *testing.T) {
	c := NewCatalog("logs")

	def, err := c.Lookup(SearchMessageLogs)
	require.NoError(t, err)
	_, err = def.Render(map[string]string{"table": "dual"})
	assert.Error(t, err)

	static, err := c.Lookup(OrderStatus)
	require.NoError(t, err)
	_, err = static.Render(map[string]string{SlotDateFilter: "AND 1=1"})
	assert.Error(t, err)

	sqlText, err := static.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, static.SQL, sqlText)
}

func TestPlaceholderNames(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"none", "SELECT 1 FROM DUAL", nil},
		{"distinct in order", "WHERE a = :b AND c = :a AND d = :b", []string{"b", "a"}},
		{"escaped colon", "TO_TIMESTAMP(:d, 'HH24::MI::SS')", []string{"d"}},
		{"trailing colon", "SELECT ':'", nil},
		{"timestamp format", "x >= TO_TIMESTAMP(:start_date, " + TimestampFormat + ")", []string{"start_date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, placeholderNames(tt.sql))
		})
	}
}
