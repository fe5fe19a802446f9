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
	"fmt"

	"eocdb/platform/query"
)

const historyTable = "AI_PLAN_EXECUTION_HISTORY"

// Execution records one run of a plan.
type Execution struct {
	PlanID               string  `json:"plan_id"`
	OrderID              *string `json:"order_id"`
	ExecutionTimeMS      *int    `json:"execution_time_ms"`
	Success              bool    `json:"success"`
	ErrorMessage         *string `json:"error_message"`
	CollectedDataSummary *string `json:"collected_data_summary"`
	AnalysisResult       *string `json:"analysis_result"`
}

// RecordExecution inserts an execution history row.
func (s *Service) RecordExecution(ctx context.Context, e Execution) error {
	success := 0
	if e.Success {
		success = 1
	}

	_, err := s.exec.Exec(ctx, query.Statement{
		Operation: "record_execution",
		SQL: fmt.Sprintf(`INSERT INTO %s.%s (
			PLAN_ID, ORDER_ID, EXECUTION_TIME_MS, SUCCESS,
			ERROR_MESSAGE, COLLECTED_DATA_SUMMARY, ANALYSIS_RESULT
		) VALUES (
			:plan_id, :order_id, :execution_time_ms, :success,
			:error_message, :collected_data_summary, :analysis_result
		)`, s.planSchema, historyTable),
		Params: map[string]interface{}{
			"plan_id":                e.PlanID,
			"order_id":               nullable(e.OrderID),
			"execution_time_ms":      nullable(e.ExecutionTimeMS),
			"success":                success,
			"error_message":          nullable(e.ErrorMessage),
			"collected_data_summary": nullable(e.CollectedDataSummary),
			"analysis_result":        nullable(e.AnalysisResult),
		},
	})
	return err
}

// HistoryFilter narrows execution history.
type HistoryFilter struct {
	PlanID  string `json:"plan_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Limit   int    `json:"limit"`
}

// ExecutionHistory lists executions, newest first.
func (s *Service) ExecutionHistory(ctx context.Context, f HistoryFilter) (*query.Result, error) {
	b := query.NewBuilder().
		Equal("PLAN_ID", "plan_id", f.PlanID).
		Equal("ORDER_ID", "order_id", f.OrderID)

	return s.exec.Query(ctx, query.Statement{
		Operation: "execution_history",
		SQL: fmt.Sprintf("SELECT * FROM %s.%s WHERE %s ORDER BY EXECUTION_DATE DESC %s",
			s.planSchema, historyTable, b.Where(), query.FetchFirst),
		Params: b.Params(),
		Limit:  query.ClampLimit(f.Limit, DefaultPlanLimit, MaxPlanLimit),
	})
}
