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
	"database/sql"
	"encoding/base64"
	"strings"
	"time"
)

// RowScanner is the cursor Normalize reads from. *sqlx.Rows satisfies it.
type RowScanner interface {
	ColumnTypes() ([]*sql.ColumnType, error)
	Next() bool
	SliceScan() ([]interface{}, error)
	Err() error
}

type columnClass int

const (
	classScalar columnClass = iota
	classBinary
	classCharLOB
)

func classify(databaseTypeName string) columnClass {
	name := strings.NewReplacer(" ", "", "_", "").Replace(strings.ToUpper(databaseTypeName))
	switch {
	case name == "BLOB", name == "BFILE", name == "RAW", name == "LONGRAW",
		name == "BYTEA", name == "VARBINARY", name == "BINARY":
		return classBinary
	case name == "CLOB", name == "NCLOB", name == "LONG", name == "TEXT":
		return classCharLOB
	}
	return classScalar
}

// Normalize reads at most limit rows into transport form and reports whether
// more were available. A limit of zero or less reads everything.
//
//   - binary columns become base64 text, empty payloads become null
//   - character LOBs and other byte slices become text
//   - time values become RFC 3339 text keeping their offset
//   - column names are lower-cased
func Normalize(rows RowScanner, limit int) (*Result, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(types))
	classes := make([]columnClass, len(types))
	for i, ct := range types {
		columns[i] = strings.ToLower(ct.Name())
		classes[i] = classify(ct.DatabaseTypeName())
	}

	result := &Result{Columns: columns, Rows: make([]Row, 0)}
	for rows.Next() {
		if limit > 0 && len(result.Rows) >= limit {
			result.Truncated = true
			break
		}

		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, v := range values {
			row[i] = Field{Name: columns[i], Value: normalizeValue(classes[i], v)}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func normalizeValue(class columnClass, v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []byte:
		if class == classBinary {
			if len(val) == 0 {
				return nil
			}
			return base64.StdEncoding.EncodeToString(val)
		}
		return string(val)
	}
	return v
}
