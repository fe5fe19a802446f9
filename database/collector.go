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

package database

import "github.com/prometheus/client_golang/prometheus"

// PoolCollector exports Pool.Stats as Prometheus gauges, read at scrape time.
type PoolCollector struct {
	pool *Pool

	open      *prometheus.Desc
	inUse     *prometheus.Desc
	idle      *prometheus.Desc
	maxOpen   *prometheus.Desc
	waitCount *prometheus.Desc
}

// NewPoolCollector creates a collector for p.
func NewPoolCollector(p *Pool) *PoolCollector {
	constLabels := prometheus.Labels{"driver": p.dialect.Name()}
	return &PoolCollector{
		pool:      p,
		open:      prometheus.NewDesc("eocdb_pool_open_connections", "Established connections, in use and idle", nil, constLabels),
		inUse:     prometheus.NewDesc("eocdb_pool_in_use_connections", "Connections currently leased", nil, constLabels),
		idle:      prometheus.NewDesc("eocdb_pool_idle_connections", "Idle connections", nil, constLabels),
		maxOpen:   prometheus.NewDesc("eocdb_pool_max_open_connections", "Configured pool maximum", nil, constLabels),
		waitCount: prometheus.NewDesc("eocdb_pool_wait_count_total", "Acquisitions that had to wait for a connection", nil, constLabels),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.maxOpen
	ch <- c.waitCount
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(s.Open))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.maxOpen, prometheus.GaugeValue, float64(s.Max))
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(s.WaitCount))
}
