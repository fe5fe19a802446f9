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
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"eocdb/platform/query"
	"eocdb/platform/shared/logger"
)

const plansTable = "AI_TROUBLESHOOTING_PLANS"

// PlanID derives the plan identifier from the goal and order type. Plans
// without an order type share the "default" key for their goal.
func PlanID(goalType string, orderType *string) string {
	key := goalType + "_default"
	if orderType != nil && *orderType != "" {
		key = goalType + "_" + *orderType
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

// PlanCreate is a new troubleshooting plan. Steps and ExpectedOutcomes are
// JSON documents stored as text.
type PlanCreate struct {
	GoalType         string   `json:"goal_type"`
	OrderType        *string  `json:"order_type"`
	Title            string   `json:"title"`
	Description      *string  `json:"description"`
	Steps            string   `json:"steps"`
	ExpectedOutcomes *string  `json:"expected_outcomes"`
	Confidence       *float64 `json:"confidence"`
}

// CreatePlan inserts a plan and returns its id.
func (s *Service) CreatePlan(ctx context.Context, p PlanCreate) (string, error) {
	planID := PlanID(p.GoalType, p.OrderType)

	confidence := 0.0
	if p.Confidence != nil {
		confidence = *p.Confidence
	}

	_, err := s.exec.Exec(ctx, query.Statement{
		Operation: "create_plan",
		SQL: fmt.Sprintf(`INSERT INTO %s.%s (
			PLAN_ID, GOAL_TYPE, ORDER_TYPE, TITLE, DESCRIPTION,
			STEPS, EXPECTED_OUTCOMES, CONFIDENCE
		) VALUES (
			:plan_id, :goal_type, :order_type, :title, :description,
			:steps, :expected_outcomes, :confidence
		)`, s.planSchema, plansTable),
		Params: map[string]interface{}{
			"plan_id":           planID,
			"goal_type":         p.GoalType,
			"order_type":        nullable(p.OrderType),
			"title":             p.Title,
			"description":       nullable(p.Description),
			"steps":             p.Steps,
			"expected_outcomes": nullable(p.ExpectedOutcomes),
			"confidence":        confidence,
		},
	})
	if err != nil {
		return "", err
	}

	s.log.Info(logger.RequestID(ctx), "Created plan", map[string]interface{}{"plan_id": planID})
	return planID, nil
}

// GetPlan returns the plan, or nil when it does not exist. Deactivated plans
// are still returned.
func (s *Service) GetPlan(ctx context.Context, planID string) (query.Row, error) {
	return s.exec.QueryOne(ctx, query.Statement{
		Operation: "get_plan",
		SQL:       fmt.Sprintf("SELECT * FROM %s.%s WHERE PLAN_ID = :plan_id", s.planSchema, plansTable),
		Params:    map[string]interface{}{"plan_id": planID},
	})
}

// PlanSearch filters plans. MinSuccessRate is applied to the fetched rows;
// plans never used are dropped when it is set.
type PlanSearch struct {
	GoalType       string   `json:"goal_type,omitempty"`
	OrderType      string   `json:"order_type,omitempty"`
	IsActive       *int     `json:"is_active,omitempty"`
	MinSuccessRate *float64 `json:"min_success_rate,omitempty"`
	Limit          int      `json:"limit"`
}

// SearchPlans lists plans, most recently used first.
func (s *Service) SearchPlans(ctx context.Context, f PlanSearch) (*query.Result, error) {
	b := query.NewBuilder().
		Equal("GOAL_TYPE", "goal_type", f.GoalType).
		Equal("ORDER_TYPE", "order_type", f.OrderType).
		EqualInt("IS_ACTIVE", "is_active", f.IsActive)

	result, err := s.exec.Query(ctx, query.Statement{
		Operation: "search_plans",
		SQL: fmt.Sprintf("SELECT * FROM %s.%s WHERE %s ORDER BY LAST_USED_DATE DESC NULLS LAST %s",
			s.planSchema, plansTable, b.Where(), query.FetchFirst),
		Params: b.Params(),
		Limit:  query.ClampLimit(f.Limit, DefaultPlanLimit, MaxPlanLimit),
	})
	if err != nil {
		return nil, err
	}

	if f.MinSuccessRate != nil {
		kept := make([]query.Row, 0, len(result.Rows))
		for _, row := range result.Rows {
			if successRate(row) >= *f.MinSuccessRate {
				kept = append(kept, row)
			}
		}
		result.Rows = kept
	}
	return result, nil
}

// successRate is SUCCESS_COUNT / TOTAL_USAGE, or -1 for unused plans.
func successRate(row query.Row) float64 {
	total, ok := row.Float("total_usage")
	if !ok || total <= 0 {
		return -1
	}
	success, _ := row.Float("success_count")
	return success / total
}

// PlanUpdate holds the fields to change. Nil fields are left alone.
type PlanUpdate struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	Steps            *string  `json:"steps"`
	ExpectedOutcomes *string  `json:"expected_outcomes"`
	Confidence       *float64 `json:"confidence"`
	IsActive         *int     `json:"is_active"`
}

// UpdatePlan applies a partial update and returns the rows changed.
func (s *Service) UpdatePlan(ctx context.Context, planID string, u PlanUpdate) (int64, error) {
	var set []string
	params := map[string]interface{}{"plan_id": planID}

	assign := func(column, param string, value interface{}) {
		set = append(set, column+" = :"+param)
		params[param] = value
	}
	if u.Title != nil {
		assign("TITLE", "title", *u.Title)
	}
	if u.Description != nil {
		assign("DESCRIPTION", "description", *u.Description)
	}
	if u.Steps != nil {
		assign("STEPS", "steps", *u.Steps)
	}
	if u.ExpectedOutcomes != nil {
		assign("EXPECTED_OUTCOMES", "expected_outcomes", *u.ExpectedOutcomes)
	}
	if u.Confidence != nil {
		assign("CONFIDENCE", "confidence", *u.Confidence)
	}
	if u.IsActive != nil {
		assign("IS_ACTIVE", "is_active", *u.IsActive)
	}
	if len(set) == 0 {
		return 0, ErrNoFieldsToUpdate
	}
	set = append(set, "LAST_UPDATED_DATE = CURRENT_TIMESTAMP")

	return s.exec.Exec(ctx, query.Statement{
		Operation: "update_plan",
		SQL: fmt.Sprintf("UPDATE %s.%s SET %s WHERE PLAN_ID = :plan_id",
			s.planSchema, plansTable, strings.Join(set, ", ")),
		Params: params,
	})
}

// RecordPlanUsage counts one execution of the plan, and one success when
// success is true. The increment happens in a single statement.
func (s *Service) RecordPlanUsage(ctx context.Context, planID string, success bool) (int64, error) {
	increment := 0
	if success {
		increment = 1
	}
	return s.exec.Exec(ctx, query.Statement{
		Operation: "record_plan_usage",
		SQL: fmt.Sprintf(`UPDATE %s.%s
			SET TOTAL_USAGE = TOTAL_USAGE + 1,
			    SUCCESS_COUNT = SUCCESS_COUNT + :success_increment,
			    LAST_USED_DATE = CURRENT_TIMESTAMP
			WHERE PLAN_ID = :plan_id`, s.planSchema, plansTable),
		Params: map[string]interface{}{
			"plan_id":           planID,
			"success_increment": increment,
		},
	})
}

// DeactivatePlan soft-deletes the plan. Plan rows are never removed.
func (s *Service) DeactivatePlan(ctx context.Context, planID string) (int64, error) {
	return s.exec.Exec(ctx, query.Statement{
		Operation: "deactivate_plan",
		SQL: fmt.Sprintf("UPDATE %s.%s SET IS_ACTIVE = 0, LAST_UPDATED_DATE = CURRENT_TIMESTAMP WHERE PLAN_ID = :plan_id",
			s.planSchema, plansTable),
		Params: map[string]interface{}{"plan_id": planID},
	})
}
