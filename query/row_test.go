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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMarshalKeepsColumnOrder(t *testing.T) {
	row := Row{
		{Name: "zeta", Value: "z"},
		{Name: "alpha", Value: int64(1)},
		{Name: "mid", Value: nil},
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"z","alpha":1,"mid":null}`, string(data))

	data, err = json.Marshal(Row(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestRowAccessors(t *testing.T) {
	row := Row{
		{Name: "order_id", Value: "ORD-1"},
		{Name: "amount", Value: "12.50"},
		{Name: "count", Value: int64(4)},
		{Name: "note", Value: nil},
	}

	assert.Equal(t, "ORD-1", row.String("order_id"))
	assert.Equal(t, "", row.String("note"))
	assert.Equal(t, "", row.String("missing"))
	assert.Equal(t, "4", row.String("count"))

	f, ok := row.Float("amount")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	f, ok = row.Float("count")
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	_, ok = row.Float("order_id")
	assert.False(t, ok)
	_, ok = row.Float("note")
	assert.False(t, ok)

	v, ok := row.Get("note")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestResultFirst(t *testing.T) {
	var nilResult *Result
	assert.Nil(t, nilResult.First())
	assert.Nil(t, (&Result{}).First())

	r := &Result{Rows: []Row{{{Name: "a", Value: 1}}}}
	v, ok := r.First().Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
