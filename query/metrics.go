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

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics
var (
	promQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eocdb_query_duration_milliseconds",
			Help:    "Statement duration in milliseconds, including retries",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"operation"},
	)
	promQueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eocdb_query_errors_total",
			Help: "Failed statements by operation and failure kind",
		},
		[]string{"operation", "kind"},
	)
	promQueryRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eocdb_query_retries_total",
			Help: "Statement retries after a transient failure",
		},
		[]string{"operation"},
	)
	promQueryTruncated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eocdb_query_truncated_total",
			Help: "Reads that hit their row limit with rows remaining",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(promQueryDuration)
	prometheus.MustRegister(promQueryErrors)
	prometheus.MustRegister(promQueryRetries)
	prometheus.MustRegister(promQueryTruncated)
}
