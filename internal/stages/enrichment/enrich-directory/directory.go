// internal/stages/enrichment/enrich-directory/directory.go
package enrichdirectory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mentor-matcher/internal/common/database"
	apperrors "mentor-matcher/internal/common/errors"
	commonhttp "mentor-matcher/internal/common/http"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/retry"
	"mentor-matcher/internal/models"
)

const (
	lookupManager = "manager"
	lookupTitle   = "title"
)

// Directory resolves organizational data for a user identifier.
type Directory interface {
	Manager(ctx context.Context, user string) (string, error)
	Title(ctx context.Context, user string) (string, error)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("directory returned status %d", e.code)
	}
	return fmt.Sprintf("directory returned status %d: %s", e.code, e.body)
}

var errMalformedBody = errors.New("malformed directory response")

// DirectoryClient calls a Microsoft Graph style users API.
type DirectoryClient struct {
	baseURL  string
	client   *commonhttp.Client
	policy   retry.Policy
	cache    *database.RedisClient
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewDirectoryClient builds a client; cache may be nil.
func NewDirectoryClient(cfg *Config, cache *database.RedisClient, log logger.Logger) *DirectoryClient {
	return &DirectoryClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  commonhttp.NewBearerClient(cfg.AccessToken, cfg.Timeout),
		policy: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
			MaxDelay:   10 * time.Second,
			Retryable:  isTransient,
		},
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   log,
	}
}

// Manager returns the principal name of user's manager. A user without a
// manager resolves to "".
func (d *DirectoryClient) Manager(ctx context.Context, user string) (string, error) {
	return d.cached(ctx, lookupManager, user, func(ctx context.Context) (string, error) {
		u, found, err := d.getUser(ctx, fmt.Sprintf("%s/users/%s/manager", d.baseURL, url.PathEscape(user)))
		if err != nil || !found {
			return "", err
		}
		if u.UserPrincipalName != "" {
			return u.UserPrincipalName, nil
		}
		return u.Mail, nil
	})
}

// Title returns user's job title; "" when the directory has none.
func (d *DirectoryClient) Title(ctx context.Context, user string) (string, error) {
	return d.cached(ctx, lookupTitle, user, func(ctx context.Context) (string, error) {
		u, found, err := d.getUser(ctx, fmt.Sprintf("%s/users/%s", d.baseURL, url.PathEscape(user)))
		if err != nil {
			return "", err
		}
		if !found {
			return "", &statusError{code: http.StatusNotFound}
		}
		return u.JobTitle, nil
	})
}

func cacheKey(kind, user string) string {
	return fmt.Sprintf("directory:%s:%s", kind, models.Key(user))
}

func (d *DirectoryClient) cached(ctx context.Context, kind, user string, fetch func(ctx context.Context) (string, error)) (string, error) {
	key := cacheKey(kind, user)
	if d.cache != nil {
		val, err := d.cache.Get(ctx, key)
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, database.ErrCacheMiss) {
			d.logger.Debug("directory cache unavailable", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	val, err := retry.Do(ctx, d.policy, fetch)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeAuth) {
			return "", err
		}
		return "", apperrors.NewDirectoryLookupError(kind, user, err)
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, val, d.cacheTTL); err != nil {
			d.logger.Debug("directory cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return val, nil
}

// getUser fetches a user object. found is false on 404.
func (d *DirectoryClient) getUser(ctx context.Context, endpoint string) (*graphUser, bool, error) {
	resp, err := d.client.Get(ctx, endpoint)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, false, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, apperrors.NewAuthError("directory", fmt.Sprintf("status %d: %s", resp.StatusCode, graphErrorMessage(body)))
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, false, &statusError{code: resp.StatusCode, body: graphErrorMessage(body)}
	}

	var u graphUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, false, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return &u, true, nil
}

// graphErrorMessage extracts error.message from a Graph error body.
func graphErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return ""
}

// isTransient reports whether a lookup is worth retrying: throttling,
// server errors and transport failures are; auth, 4xx and bad bodies are not.
func isTransient(err error) bool {
	if apperrors.HasCode(err, apperrors.ErrCodeAuth) || errors.Is(err, errMalformedBody) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}
