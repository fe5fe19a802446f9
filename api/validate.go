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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"eocdb/platform/query"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalid("Invalid request body: %v", err)
	}
	return nil
}

// checkLimit accepts zero as "use the default".
func checkLimit(limit, max int) error {
	if limit < 0 || limit > max {
		return invalid("limit must be between 1 and %d", max)
	}
	return nil
}

// queryLimit reads ?limit, falling back to def when absent.
func queryLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, invalid("limit must be between 1 and %d", max)
	}
	return n, nil
}

// queryBool reads a boolean query parameter, falling back to def when absent.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid("%s must be true or false", name)
	}
	return b, nil
}

// checkDates validates YYYY-MM-DDTHH:MM:SS bounds. Empty values are allowed.
func checkDates(named ...string) error {
	for i := 0; i+1 < len(named); i += 2 {
		name, value := named[i], named[i+1]
		if value == "" {
			continue
		}
		if _, err := time.Parse(query.InputTimeLayout, value); err != nil {
			return invalid("%s must use the format YYYY-MM-DDTHH:MM:SS", name)
		}
	}
	return nil
}

// checkUnit validates a 0..1 ratio.
func checkUnit(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return invalid("%s must be between 0 and 1", name)
	}
	return nil
}

func checkActiveFlag(v *int) error {
	if v != nil && *v != 0 && *v != 1 {
		return invalid("is_active must be 0 or 1")
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
