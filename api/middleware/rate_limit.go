package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/sprinklerhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
)

// RateLimiterStore counts hits inside a fixed window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// RateLimitRule counts requests under one key per request. An empty key skips
// the rule for that request.
type RateLimitRule struct {
	scope     string
	limit     int
	readsBody bool
	key       func(r *http.Request, body []byte) string
}

// ByIP limits requests per client address.
func ByIP(limit int) RateLimitRule {
	return RateLimitRule{scope: "ip", limit: limit, key: func(r *http.Request, _ []byte) string {
		return clientIP(r)
	}}
}

// ByEmail limits requests per email in the JSON body. The email is hashed
// before it reaches the store or the logs.
func ByEmail(limit int) RateLimitRule {
	return RateLimitRule{scope: "email", limit: limit, readsBody: true, key: func(_ *http.Request, body []byte) string {
		email := strings.ToLower(strings.TrimSpace(emailFromJSON(body)))
		if email == "" {
			return ""
		}
		return hashValue(email)
	}}
}

// RateLimitPolicy groups rules sharing one window.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	rules  []RateLimitRule
}

// NewRateLimitPolicy drops rules with a non-positive limit.
func NewRateLimitPolicy(name string, window time.Duration, rules ...RateLimitRule) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	p := RateLimitPolicy{name: name, window: window}
	for _, rule := range rules {
		if rule.limit > 0 {
			p.rules = append(p.rules, rule)
		}
	}
	return p
}

// NewAuthRateLimitPolicy is the login/register shape: per IP and per email.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) RateLimitPolicy {
	return NewRateLimitPolicy(name, window, ByIP(ipLimit), ByEmail(emailLimit))
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && len(p.rules) > 0
}

func (p RateLimitPolicy) readsBody() bool {
	for _, rule := range p.rules {
		if rule.readsBody {
			return true
		}
	}
	return false
}

func (p RateLimitPolicy) storeKey(scope, value string) string {
	return "sh:rl:" + p.name + ":" + scope + ":" + value
}

// RateLimit rejects requests with 429 once any rule of the policy is over its
// limit for the current window.
func RateLimit(policy RateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.readsBody() && r.Body != nil {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, rule := range policy.rules {
				value := rule.key(r, body)
				if value == "" {
					continue
				}
				count, err := store.IncrWithTTL(ctx, policy.storeKey(rule.scope, value), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(rule.limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.name,
							"scope":    rule.scope,
							"attempts": count,
							"limit":    rule.limit,
						}), "rate limit exceeded")
					}
					responses.WriteError(ctx, nil, w, pkgerrors.LimitExceeded("Too many attempts, please try again later", int64(rule.limit), policy.window))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromJSON(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return body.Email
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
