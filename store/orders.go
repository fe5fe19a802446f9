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

var (
	orderHeaderTable   = table{name: "ORDER_ORDER_HEADER", columns: query.OrderHeaderColumns, orderBy: "CWORDERCREATIONDATE"}
	orderTrackingTable = table{name: "ORDER_TRACKING_INFO", columns: query.OrderTrackingColumns, orderBy: "CWORDERCREATIONDATE"}
	orderInstanceTable = table{name: "CWORDERINSTANCE", columns: query.OrderInstanceColumns, orderBy: "CREATIONDATE"}
)

// OrderHeaderSearch filters ORDER_ORDER_HEADER. Empty fields are ignored.
type OrderHeaderSearch struct {
	CWOrderID          string `json:"cworderid,omitempty"`
	OMOrderID          string `json:"omorderid,omitempty"`
	QuoteID            string `json:"quoteid,omitempty"`
	TelephoneNumber    string `json:"telephonenumber,omitempty"`
	UniversalServiceID string `json:"universalserviceid,omitempty"`
	OrderType          string `json:"ordertype,omitempty"`
	StageCode          string `json:"stagecode,omitempty"`
	StartDate          string `json:"start_date,omitempty"`
	EndDate            string `json:"end_date,omitempty"`
	Limit              int    `json:"limit"`
	IncludeBlobData    bool   `json:"include_blob_data"`
}

// SearchOrderHeaders searches order headers, newest first.
func (s *Service) SearchOrderHeaders(ctx context.Context, f OrderHeaderSearch) (*query.Result, error) {
	b := query.NewBuilder().
		Equal("CWORDERID", "cworderid", f.CWOrderID).
		Equal("OMORDERID", "omorderid", f.OMOrderID).
		Equal("QUOTEID", "quoteid", f.QuoteID).
		Equal("TELEPHONENUMBER", "telephonenumber", f.TelephoneNumber).
		Equal("UNIVERSALSERVICEID", "universalserviceid", f.UniversalServiceID).
		Equal("ORDERTYPE", "ordertype", f.OrderType).
		Equal("STAGECODE", "stagecode", f.StageCode).
		From("CWORDERCREATIONDATE", "start_date", f.StartDate).
		To("CWORDERCREATIONDATE", "end_date", f.EndDate)

	return s.search(ctx, "search_order_headers", orderHeaderTable, b, f.Limit, f.IncludeBlobData)
}

// GetOrderHeader returns the header with the given CWDOCID, or nil.
func (s *Service) GetOrderHeader(ctx context.Context, cwdocid string) (query.Row, error) {
	return s.getByDocID(ctx, "get_order_header", orderHeaderTable, cwdocid)
}

// OrderTrackingSearch filters ORDER_TRACKING_INFO. HasErrors selects rows
// with (true) or without (false) any error indicator set.
type OrderTrackingSearch struct {
	CWOrderID       string `json:"cworderid,omitempty"`
	OrderID         string `json:"orderid,omitempty"`
	WorkID          string `json:"workid,omitempty"`
	SCaseID         string `json:"scaseid,omitempty"`
	ICaseID         string `json:"icaseid,omitempty"`
	OrderStatus     string `json:"orderstatus,omitempty"`
	CaseStatus      string `json:"casestatus,omitempty"`
	FlowStatus      string `json:"flowstatus,omitempty"`
	HasErrors       *bool  `json:"has_errors,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Limit           int    `json:"limit"`
	IncludeBlobData bool   `json:"include_blob_data"`
}

// SearchOrderTracking searches order tracking rows, newest first.
func (s *Service) SearchOrderTracking(ctx context.Context, f OrderTrackingSearch) (*query.Result, error) {
	b := query.NewBuilder().
		Equal("CWORDERID", "cworderid", f.CWOrderID).
		Equal("ORDERID", "orderid", f.OrderID).
		Equal("WORKID", "workid", f.WorkID).
		Equal("SCASEID", "scaseid", f.SCaseID).
		Equal("ICASEID", "icaseid", f.ICaseID).
		Equal("ORDERSTATUS", "orderstatus", f.OrderStatus).
		Equal("CASESTATUS", "casestatus", f.CaseStatus).
		Equal("FLOWSTATUS", "flowstatus", f.FlowStatus).
		HasErrors(f.HasErrors).
		From("CWORDERCREATIONDATE", "start_date", f.StartDate).
		To("CWORDERCREATIONDATE", "end_date", f.EndDate)

	return s.search(ctx, "search_order_tracking", orderTrackingTable, b, f.Limit, f.IncludeBlobData)
}

// GetOrderTracking returns the tracking row with the given CWDOCID, or nil.
func (s *Service) GetOrderTracking(ctx context.Context, cwdocid string) (query.Row, error) {
	return s.getByDocID(ctx, "get_order_tracking", orderTrackingTable, cwdocid)
}

// OrderInstanceSearch filters CWORDERINSTANCE.
type OrderInstanceSearch struct {
	CWDocID         string `json:"cwdocid,omitempty"`
	CustomerID      string `json:"customerid,omitempty"`
	AccountID       string `json:"accountid,omitempty"`
	OrderType       string `json:"ordertype,omitempty"`
	OrderSubtype    string `json:"ordersubtype,omitempty"`
	Status          string `json:"status,omitempty"`
	State           string `json:"state,omitempty"`
	QuoteID         string `json:"quoteid,omitempty"`
	ExternalOrderID string `json:"externalorderid,omitempty"`
	ProductCode     string `json:"productcode,omitempty"`
	ParentOrder     string `json:"parentorder,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Limit           int    `json:"limit"`
	IncludeBlobData bool   `json:"include_blob_data"`
}

// SearchOrderInstances searches order instances, newest first.
func (s *Service) SearchOrderInstances(ctx context.Context, f OrderInstanceSearch) (*query.Result, error) {
	b := query.NewBuilder().
		Equal("CWDOCID", "cwdocid", f.CWDocID).
		Equal("CUSTOMERID", "customerid", f.CustomerID).
		Equal("ACCOUNTID", "accountid", f.AccountID).
		Equal("ORDERTYPE", "ordertype", f.OrderType).
		Equal("ORDERSUBTYPE", "ordersubtype", f.OrderSubtype).
		Equal("STATUS", "status", f.Status).
		Equal("STATE", "state", f.State).
		Equal("QUOTEID", "quoteid", f.QuoteID).
		Equal("EXTERNALORDERID", "externalorderid", f.ExternalOrderID).
		Equal("PRODUCTCODE", "productcode", f.ProductCode).
		Equal("PARENTORDER", "parentorder", f.ParentOrder).
		From("CREATIONDATE", "start_date", f.StartDate).
		To("CREATIONDATE", "end_date", f.EndDate)

	return s.search(ctx, "search_order_instances", orderInstanceTable, b, f.Limit, f.IncludeBlobData)
}

// GetOrderInstance returns the instance with the given CWDOCID, or nil.
func (s *Service) GetOrderInstance(ctx context.Context, cwdocid string) (query.Row, error) {
	return s.getByDocID(ctx, "get_order_instance", orderInstanceTable, cwdocid)
}
