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

package resilience

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
)

// connection-level failures reported only as text by some drivers
var transientPatterns = []string{
	"bad connection",
	"broken pipe",
	"connection refused",
	"connection reset",
	"connection timed out",
	"i/o timeout",
	"server closed the connection",
	"end-of-file on communication channel",
	"not connected to oracle",
}

// IsTransient reports whether a failed read is worth another attempt.
// parent is the caller's context: once it is done nothing is retried, while a
// deadline that expired only on the statement context is. driverTransient
// adds the dialect's own error codes and may be nil.
func IsTransient(parent context.Context, err error, driverTransient func(error) bool) bool {
	if err == nil || parent.Err() != nil {
		return false
	}

	switch {
	case errors.Is(err, driver.ErrBadConn):
		return true
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if driverTransient != nil && driverTransient(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// TransientClassifier binds IsTransient to a caller context for use as
// RetryConfig.RetryIf.
func TransientClassifier(parent context.Context, driverTransient func(error) bool) func(error) bool {
	return func(err error) bool {
		return IsTransient(parent, err, driverTransient)
	}
}

// IsBadConn reports whether the driver rejected the connection before the
// statement was sent. It is the only failure after which a write is retried.
func IsBadConn(err error) bool {
	return errors.Is(err, driver.ErrBadConn)
}
