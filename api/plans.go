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

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"eocdb/platform/store"
)

// handleCreatePlan handles POST /plans
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to create plan"

	var p store.PlanCreate
	if err := decodeBody(w, r, &p); err != nil {
		fail(w, r, failure, err)
		return
	}

	var missing error
	switch {
	case p.GoalType == "":
		missing = invalid("goal_type is required")
	case p.Title == "":
		missing = invalid("title is required")
	case p.Steps == "":
		missing = invalid("steps is required")
	}
	if err := firstError(missing, checkUnit("confidence", p.Confidence)); err != nil {
		fail(w, r, failure, err)
		return
	}

	planID, err := s.svc.CreatePlan(r.Context(), p)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, envelope{
		"success": true,
		"plan_id": planID,
		"message": "Plan created successfully",
	}, http.StatusCreated)
}

// handleGetPlan handles GET /plans/{plan_id}
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["plan_id"]
	row, err := s.svc.GetPlan(r.Context(), planID)
	getByKey(w, r, "plan", "Plan", planID, row, err)
}

// handleUpdatePlan handles PUT /plans/{plan_id}
func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to update plan"
	planID := mux.Vars(r)["plan_id"]

	var u store.PlanUpdate
	if err := decodeBody(w, r, &u); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(checkUnit("confidence", u.Confidence), checkActiveFlag(u.IsActive)); err != nil {
		fail(w, r, failure, err)
		return
	}

	n, err := s.svc.UpdatePlan(r.Context(), planID, u)
	s.planWritten(w, r, failure, planID, "Plan updated successfully", n, err)
}

// handleDeletePlan handles DELETE /plans/{plan_id}. Plans are deactivated,
// never removed.
func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["plan_id"]
	n, err := s.svc.DeactivatePlan(r.Context(), planID)
	s.planWritten(w, r, "Failed to deactivate plan", planID, "Plan deactivated successfully", n, err)
}

type usageRequest struct {
	Success *bool `json:"success"`
}

// handlePlanUsage handles POST /plans/{plan_id}/usage
func (s *Server) handlePlanUsage(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to record plan usage"
	planID := mux.Vars(r)["plan_id"]

	var req usageRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, failure, err)
		return
	}
	if req.Success == nil {
		fail(w, r, failure, invalid("success is required"))
		return
	}

	n, err := s.svc.RecordPlanUsage(r.Context(), planID, *req.Success)
	s.planWritten(w, r, failure, planID, "Plan usage recorded", n, err)
}

func (s *Server) planWritten(w http.ResponseWriter, r *http.Request, failure, planID, message string, n int64, err error) {
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	if n == 0 {
		notFound(w, fmt.Sprintf("Plan %s not found", planID))
		return
	}
	writeJSONResponse(w, envelope{
		"success":      true,
		"message":      message,
		"plan_id":      planID,
		"rows_updated": n,
	}, http.StatusOK)
}

// handleSearchPlans handles POST /plans/search
func (s *Server) handleSearchPlans(w http.ResponseWriter, r *http.Request) {
	const failure = "Plan search failed"

	var f store.PlanSearch
	if err := decodeBody(w, r, &f); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(
		checkLimit(f.Limit, store.MaxPlanLimit),
		checkUnit("min_success_rate", f.MinSuccessRate),
		checkActiveFlag(f.IsActive),
	); err != nil {
		fail(w, r, failure, err)
		return
	}
	f.Limit = defaultLimit(f.Limit, store.DefaultPlanLimit)

	result, err := s.svc.SearchPlans(r.Context(), f)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, searchResponse("plans", result, f), http.StatusOK)
}

// handlePlansByGoalType handles GET /plans/by-goal-type/{goal_type}. Only
// active plans are listed unless ?is_active says otherwise.
func (s *Server) handlePlansByGoalType(w http.ResponseWriter, r *http.Request) {
	const failure = "Plan search failed"
	goalType := mux.Vars(r)["goal_type"]

	limit, err := queryLimit(r, store.DefaultPlanLimit, store.MaxPlanLimit)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	active := 1
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err == nil {
			err = checkActiveFlag(&v)
		} else {
			err = invalid("is_active must be 0 or 1")
		}
		if err != nil {
			fail(w, r, failure, err)
			return
		}
		active = v
	}

	result, err := s.svc.SearchPlans(r.Context(), store.PlanSearch{
		GoalType:  goalType,
		OrderType: r.URL.Query().Get("order_type"),
		IsActive:  &active,
		Limit:     limit,
	})
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	body := listResponse("plans", result.Rows, len(result.Rows))
	body["goal_type"] = goalType
	writeJSONResponse(w, body, http.StatusOK)
}

// handleRecordExecution handles POST /execution-history
func (s *Server) handleRecordExecution(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to record execution"

	var e store.Execution
	if err := decodeBody(w, r, &e); err != nil {
		fail(w, r, failure, err)
		return
	}
	if e.PlanID == "" {
		fail(w, r, failure, invalid("plan_id is required"))
		return
	}

	if err := s.svc.RecordExecution(r.Context(), e); err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, envelope{
		"success": true,
		"message": "Execution recorded successfully",
	}, http.StatusCreated)
}

// handleExecutionHistory handles GET /execution-history
func (s *Server) handleExecutionHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, store.DefaultPlanLimit, store.MaxPlanLimit)
	if err != nil {
		fail(w, r, "Failed to retrieve execution history", err)
		return
	}
	f := store.HistoryFilter{
		PlanID:  r.URL.Query().Get("plan_id"),
		OrderID: r.URL.Query().Get("order_id"),
		Limit:   limit,
	}

	result, err := s.svc.ExecutionHistory(r.Context(), f)
	if err != nil {
		fail(w, r, "Failed to retrieve execution history", err)
		return
	}
	body := listResponse("history", result.Rows, len(result.Rows))
	body["search_criteria"] = f
	writeJSONResponse(w, body, http.StatusOK)
}

// handleHistoryByPlan handles GET /execution-history/by-plan/{plan_id}
func (s *Server) handleHistoryByPlan(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["plan_id"]

	limit, err := queryLimit(r, store.DefaultPlanLimit, store.MaxPlanLimit)
	if err != nil {
		fail(w, r, "Failed to retrieve execution history", err)
		return
	}
	result, err := s.svc.ExecutionHistory(r.Context(), store.HistoryFilter{PlanID: planID, Limit: limit})
	if err != nil {
		fail(w, r, "Failed to retrieve execution history", err)
		return
	}
	body := listResponse("history", result.Rows, len(result.Rows))
	body["plan_id"] = planID
	writeJSONResponse(w, body, http.StatusOK)
}
