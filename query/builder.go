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

import "strings"

// FetchFirst limits a dynamic search. The executor binds :max_results from
// the statement's Limit.
const FetchFirst = "FETCH FIRST :max_results ROWS ONLY"

// Error-indicator predicates over ORDER_TRACKING_INFO.
const (
	hasErrorsClause = `(WFMERRORID IS NOT NULL OR
		PREORDERERRORSYSTEMS > 0 OR
		ERRORSRVCVALIDATION > 0 OR
		TRIADERRORID_IA IS NOT NULL OR
		DPIERRORID_DISP IS NOT NULL OR
		DPIERRORID_IA IS NOT NULL OR
		DPIUMERRORID_IA IS NOT NULL OR
		TRIADERRORID_DISP IS NOT NULL OR
		TCERRORID_IA IS NOT NULL OR
		TCERRORID_DISP IS NOT NULL OR
		CUSTOMERNOTIFERRORID_IA IS NOT NULL OR
		CUSTOMERNOTIFERRORID_DISP IS NOT NULL OR
		HASDPIEVERERRORED = 1)`

	hasNoErrorsClause = `(WFMERRORID IS NULL AND
		(PREORDERERRORSYSTEMS IS NULL OR PREORDERERRORSYSTEMS = 0) AND
		(ERRORSRVCVALIDATION IS NULL OR ERRORSRVCVALIDATION = 0) AND
		TRIADERRORID_IA IS NULL AND
		DPIERRORID_DISP IS NULL AND
		DPIERRORID_IA IS NULL AND
		DPIUMERRORID_IA IS NULL AND
		TRIADERRORID_DISP IS NULL AND
		TCERRORID_IA IS NULL AND
		TCERRORID_DISP IS NULL AND
		CUSTOMERNOTIFERRORID_IA IS NULL AND
		CUSTOMERNOTIFERRORID_DISP IS NULL AND
		(HASDPIEVERERRORED IS NULL OR HASDPIEVERERRORED = 0))`
)

type clause struct {
	slot string
	sql  string
}

// Builder accumulates optional filter predicates and their bound values.
// Column names must be package constants or literals; only values come from
// callers, and they are always bound.
type Builder struct {
	clauses []clause
	params  map[string]interface{}
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{params: make(map[string]interface{})}
}

func (b *Builder) add(slot, sqlText, param string, value interface{}) *Builder {
	b.clauses = append(b.clauses, clause{slot: slot, sql: sqlText})
	if param != "" {
		b.params[param] = value
	}
	return b
}

// Equal adds column = :param. Empty values add nothing.
func (b *Builder) Equal(column, param, value string) *Builder {
	if value == "" {
		return b
	}
	return b.add(param+"_filter", column+" = :"+param, param, value)
}

// EqualInt adds column = :param when value is set.
func (b *Builder) EqualInt(column, param string, value *int) *Builder {
	if value == nil {
		return b
	}
	return b.add(param+"_filter", column+" = :"+param, param, *value)
}

// From adds a lower bound on a timestamp column.
func (b *Builder) From(column, param, value string) *Builder {
	if value == "" {
		return b
	}
	return b.add(param+"_filter", column+" >= TO_TIMESTAMP(:"+param+", "+TimestampFormat+")", param, value)
}

// To adds an upper bound on a timestamp column.
func (b *Builder) To(column, param, value string) *Builder {
	if value == "" {
		return b
	}
	return b.add(param+"_filter", column+" <= TO_TIMESTAMP(:"+param+", "+TimestampFormat+")", param, value)
}

// Range fills a single slot with a date range on column, bound as
// :start_date and :end_date. Either bound may be empty.
func (b *Builder) Range(slot, column, start, end string) *Builder {
	from := "TO_TIMESTAMP(:start_date, " + TimestampFormat + ")"
	to := "TO_TIMESTAMP(:end_date, " + TimestampFormat + ")"

	switch {
	case start != "" && end != "":
		b.params["start_date"] = start
		b.params["end_date"] = end
		return b.add(slot, column+" BETWEEN "+from+" AND "+to, "", nil)
	case start != "":
		return b.add(slot, column+" >= "+from, "start_date", start)
	case end != "":
		return b.add(slot, column+" <= "+to, "end_date", end)
	}
	return b
}

// HasErrors filters tracking rows on the error-indicator columns: any set
// when true, none set when false. nil adds nothing.
func (b *Builder) HasErrors(value *bool) *Builder {
	if value == nil {
		return b
	}
	if *value {
		return b.add("has_errors_filter", hasErrorsClause, "", nil)
	}
	return b.add("has_errors_filter", hasNoErrorsClause, "", nil)
}

// Where joins the active predicates with AND. With none active it returns
// the tautology 1=1 so the statement shape never changes.
func (b *Builder) Where() string {
	if len(b.clauses) == 0 {
		return "1=1"
	}
	parts := make([]string, len(b.clauses))
	for i, c := range b.clauses {
		parts[i] = c.sql
	}
	return strings.Join(parts, " AND ")
}

// Slots returns "AND <predicate>" fragments keyed by slot name for use with
// Definition.Render.
func (b *Builder) Slots() map[string]string {
	slots := make(map[string]string, len(b.clauses))
	for _, c := range b.clauses {
		slots[c.slot] = "AND " + c.sql
	}
	return slots
}

// Params returns a copy of the bound values.
func (b *Builder) Params() map[string]interface{} {
	out := make(map[string]interface{}, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// Empty reports whether no predicate is active.
func (b *Builder) Empty() bool {
	return len(b.clauses) == 0
}

// ClampLimit applies def to unset limits and caps the result at max.
func ClampLimit(requested, def, max int) int {
	if requested <= 0 {
		requested = def
	}
	if requested > max {
		return max
	}
	return requested
}
