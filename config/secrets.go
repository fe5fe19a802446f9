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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"eocdb/platform/shared/logger"
)

// SecretsProvider resolves a secret id into its key/value pairs.
type SecretsProvider interface {
	GetSecret(ctx context.Context, secretID string) (map[string]string, error)
}

// secretValueAPI is the subset of the Secrets Manager client we call.
type secretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager implements SecretsProvider using AWS Secrets Manager
type AWSSecretsManager struct {
	client secretValueAPI
	cache  map[string]*secretCacheEntry
	mu     sync.RWMutex
	ttl    time.Duration
	log    *logger.Logger
}

type secretCacheEntry struct {
	value     map[string]string
	expiresAt time.Time
}

// NewAWSSecretsManager creates a client from the default AWS credential chain.
func NewAWSSecretsManager(ctx context.Context, region string, ttl time.Duration, log *logger.Logger) (*AWSSecretsManager, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), ttl, log), nil
}

func newAWSSecretsManager(client secretValueAPI, ttl time.Duration, log *logger.Logger) *AWSSecretsManager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.New("eocdb.secrets")
	}
	return &AWSSecretsManager{
		client: client,
		cache:  make(map[string]*secretCacheEntry),
		ttl:    ttl,
		log:    log,
	}
}

// GetSecret retrieves a secret. JSON object secrets are returned as-is; any
// other string is returned under the "value" key.
func (s *AWSSecretsManager) GetSecret(ctx context.Context, secretARN string) (map[string]string, error) {
	s.mu.RLock()
	entry, exists := s.cache[secretARN]
	s.mu.RUnlock()

	if exists && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", maskARN(secretARN), err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", maskARN(secretARN))
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &values); err != nil {
		values = map[string]string{"value": *result.SecretString}
	}

	s.mu.Lock()
	s.cache[secretARN] = &secretCacheEntry{value: values, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	s.log.Info("", "Retrieved database secret", map[string]interface{}{"secret": maskARN(secretARN)})
	return values, nil
}

// ResolveCredentials replaces the static database credentials with the ones
// held in PasswordSecretARN. It is a no-op when no secret is configured.
func (c *DatabaseConfig) ResolveCredentials(ctx context.Context, secrets SecretsProvider) error {
	if c.PasswordSecretARN == "" {
		return nil
	}
	if secrets == nil {
		return fmt.Errorf("%w: ORACLE_PASSWORD_SECRET_ARN set but no secrets provider available", ErrIncompleteConfig)
	}

	values, err := secrets.GetSecret(ctx, c.PasswordSecretARN)
	if err != nil {
		return err
	}

	if u := values["username"]; u != "" {
		c.Username = u
	}
	switch {
	case values["password"] != "":
		c.Password = values["password"]
	case values["value"] != "":
		c.Password = values["value"]
	default:
		return fmt.Errorf("%w: secret %s has no password", ErrIncompleteConfig, maskARN(c.PasswordSecretARN))
	}
	return nil
}

// maskARN shows only the last 8 characters of a secret ARN
func maskARN(arn string) string {
	if len(arn) <= 12 {
		return "***"
	}
	return "..." + arn[len(arn)-8:]
}
