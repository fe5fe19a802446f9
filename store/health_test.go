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
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eocdb/platform/database"
	"eocdb/platform/query/querytest"
)

func TestCheckTables(t *testing.T) {
	svc, h := newTestService(t)

	for _, name := range RequiredTables {
		e := h.Mock.ExpectQuery(`^SELECT 1 FROM logs\.` + name + ` FETCH FIRST 1 ROWS ONLY$`)
		if name == "customers" {
			e.WillReturnError(&pq.Error{Code: "42P01", Message: "relation does not exist"})
			continue
		}
		e.WillReturnRows(querytest.Rows("?COLUMN?").AddRow("1"))
	}

	status, err := svc.CheckTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, status, len(RequiredTables))
	assert.Equal(t, TableMissing, status["customers"])
	assert.Equal(t, TableExists, status["orders"])
	assert.Equal(t, TableExists, status["error_log"])
	h.ExpectationsWereMet(t)
}

func TestCheckTablesPoolExhausted(t *testing.T) {
	svc, h := newTestService(t, querytest.WithMaxConns(1), querytest.WithAcquireTimeout(50*time.Millisecond))
	ctx := context.Background()

	held, err := h.Pool.Acquire(ctx)
	require.NoError(t, err)
	defer h.Pool.Release(held)

	status, err := svc.CheckTables(ctx)
	require.Error(t, err)
	assert.Nil(t, status)
	assert.True(t, IsUnavailable(err))
}

func TestTestConnection(t *testing.T) {
	svc, h := newTestService(t)

	h.Mock.ExpectQuery(`^SELECT 1$`).WillReturnRows(querytest.Rows("?COLUMN?").AddRow(int64(1)))
	require.NoError(t, svc.TestConnection(context.Background()))

	stats := svc.PoolStats()
	assert.True(t, stats.Initialized)
	assert.Equal(t, 0, stats.InUse)
	h.ExpectationsWereMet(t)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(database.ErrPoolClosed))
	assert.True(t, IsUnavailable(errors.Join(errors.New("query"), database.ErrPoolExhausted)))
	assert.False(t, IsUnavailable(errors.New("ORA-00942: table or view does not exist")))
	assert.False(t, IsUnavailable(nil))
}
