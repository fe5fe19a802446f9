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

import "errors"

var (
	// ErrPoolExhausted is returned when no connection frees up within the
	// acquire timeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPoolClosed is returned by every pool operation after Shutdown.
	ErrPoolClosed = errors.New("connection pool closed")
)

// OperationError attaches the failing operation and its lookup key to a
// database failure. The key is a query name or entity id, never a bound value
// taken from SQL text.
type OperationError struct {
	Operation string
	Key       string
	Message   string
	Err       error
}

func (e *OperationError) Error() string {
	prefix := e.Operation
	if e.Key != "" {
		prefix += "(" + e.Key + ")"
	}
	if e.Err != nil {
		return prefix + ": " + e.Message + " (cause: " + e.Err.Error() + ")"
	}
	return prefix + ": " + e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError
func NewOperationError(operation, key, message string, err error) *OperationError {
	return &OperationError{
		Operation: operation,
		Key:       key,
		Message:   message,
		Err:       err,
	}
}
