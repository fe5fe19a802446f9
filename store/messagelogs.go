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

	"eocdb/platform/query"
)

// MessageLogSearch filters CWMESSAGELOG. Empty fields are ignored.
type MessageLogSearch struct {
	UserData1       string `json:"user_data1,omitempty"`
	UserData2       string `json:"user_data2,omitempty"`
	UserData3       string `json:"user_data3,omitempty"`
	OrderID         string `json:"order_id,omitempty"`
	CustomerID      string `json:"customer_id,omitempty"`
	Operation       string `json:"operation,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Limit           int    `json:"limit"`
	IncludeBlobData bool   `json:"include_blob_data"`
}

// SearchMessageLogs runs the templated message log search.
func (s *Service) SearchMessageLogs(ctx context.Context, f MessageLogSearch) (*query.Result, error) {
	b := query.NewBuilder().
		Equal("USER_DATA1", "user_data1", f.UserData1).
		Equal("USER_DATA2", "user_data2", f.UserData2).
		Equal("USER_DATA3", "user_data3", f.UserData3).
		Equal("ORDER_ID", "order_id", f.OrderID).
		Equal("CUSTOMER_ID", "customer_id", f.CustomerID).
		Equal("OPERATION", "operation", f.Operation).
		Range(query.SlotDateFilter, "CREATION_TIME", f.StartDate, f.EndDate)

	fragments := b.Slots()
	if f.IncludeBlobData {
		fragments[query.SlotBlobFields] = ", " + query.MessageLogBlobColumns
	}

	params := b.Params()
	params[query.ParamMaxResults] = query.ClampLimit(f.Limit, DefaultLimit, MaxLimit)

	return s.exec.RunTemplate(ctx, query.SearchMessageLogs, fragments, params)
}

// GetMessageLog returns the entry with the given MSGID, payloads included, or
// nil when there is none.
func (s *Service) GetMessageLog(ctx context.Context, msgid int64) (query.Row, error) {
	result, err := s.exec.Run(ctx, query.GetMessageLogByID, map[string]interface{}{
		"msgid":               msgid,
		query.ParamMaxResults: 1,
	})
	if err != nil {
		return nil, err
	}
	return result.First(), nil
}
