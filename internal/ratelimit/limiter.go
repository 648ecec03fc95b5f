package ratelimit

import (
	"context"
	"time"

	"github.com/staysuite/guestgate/pkg/config"
	"github.com/staysuite/guestgate/pkg/logger"
)

// WindowCounter is a sliding-window counter over some shared store. If the
// count for key within the trailing window is below cap, the event is
// recorded and the call is admitted; a denied call records nothing.
type WindowCounter interface {
	AdmitAndRecord(ctx context.Context, key string, window time.Duration, limit int) (Decision, error)
}

type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Denial reason sub-codes, in evaluation order.
const (
	ReasonIPLimit          = "ip_limit"
	ReasonTokenMinuteLimit = "token_minute_limit"
	ReasonTokenDailyLimit  = "token_daily_limit"
	ReasonDeviceLimit      = "device_limit"
)

type Result struct {
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	Message   string    `json:"message,omitempty"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at,omitzero"`
}

type scope struct {
	reason  string
	message string
	window  time.Duration
	cap     int
	key     func(ip, token, device string) string
}

// Limiter layers four independent sliding-window limits over guest-initiated
// AI actions. Scopes run most-global first and short-circuit on denial.
type Limiter struct {
	counter    WindowCounter
	scopes     []scope
	failClosed bool
}

func NewLimiter(counter WindowCounter, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		counter:    counter,
		failClosed: cfg.FailClosed,
		scopes: []scope{
			{
				reason:  ReasonIPLimit,
				message: "Too many requests from your network. Please try again in a minute.",
				window:  cfg.IPWindow,
				cap:     cfg.IPCap,
				key:     func(ip, _, _ string) string { return "ip:" + ip },
			},
			{
				reason:  ReasonTokenMinuteLimit,
				message: "You're sending messages too quickly. Please slow down.",
				window:  cfg.TokenWindow,
				cap:     cfg.TokenCap,
				key:     func(_, token, _ string) string { return "token:min:" + token },
			},
			{
				reason:  ReasonTokenDailyLimit,
				message: "Daily chat limit reached. Please try again tomorrow.",
				window:  cfg.DailyWindow,
				cap:     cfg.DailyCap,
				key:     func(_, token, _ string) string { return "token:daily:" + token },
			},
			{
				reason:  ReasonDeviceLimit,
				message: "Too many requests from this device. Please try again shortly.",
				window:  cfg.DeviceWindow,
				cap:     cfg.DeviceCap,
				key:     func(_, _, device string) string { return "device:" + device },
			},
		},
	}
}

// Check evaluates all scopes for one guest action. On success, Remaining is
// the minimum remaining budget across the scopes so callers can warn the
// guest before exhaustion. A counter-store error is treated per the
// configured failure policy; the default is fail open so a secondary-store
// outage cannot take the guest portal down.
func (l *Limiter) Check(ctx context.Context, ip, token, device string) Result {
	minRemaining := -1
	var minReset time.Time

	for _, s := range l.scopes {
		key := s.key(ip, token, device)
		d, err := l.counter.AdmitAndRecord(ctx, key, s.window, s.cap)
		if err != nil {
			logger.WarnContext(ctx, "rate limit counter unavailable",
				"scope", s.reason, "error", err, "fail_closed", l.failClosed)
			if l.failClosed {
				return Result{
					Allowed: false,
					Reason:  s.reason,
					Message: "Service is busy. Please try again shortly.",
				}
			}
			continue
		}
		if !d.Allowed {
			return Result{
				Allowed: false,
				Reason:  s.reason,
				Message: s.message,
				ResetAt: d.ResetAt,
			}
		}
		if minRemaining < 0 || d.Remaining < minRemaining {
			minRemaining = d.Remaining
			minReset = d.ResetAt
		}
	}

	if minRemaining < 0 {
		minRemaining = 0
	}
	return Result{Allowed: true, Remaining: minRemaining, ResetAt: minReset}
}

// CheckIP evaluates only the network-address scope. Used by guest endpoints
// that run before any token is in hand (re-access requests).
func (l *Limiter) CheckIP(ctx context.Context, ip string) Result {
	s := l.scopes[0]
	d, err := l.counter.AdmitAndRecord(ctx, s.key(ip, "", ""), s.window, s.cap)
	if err != nil {
		logger.WarnContext(ctx, "rate limit counter unavailable",
			"scope", s.reason, "error", err, "fail_closed", l.failClosed)
		if l.failClosed {
			return Result{
				Allowed: false,
				Reason:  s.reason,
				Message: "Service is busy. Please try again shortly.",
			}
		}
		return Result{Allowed: true}
	}
	if !d.Allowed {
		return Result{Allowed: false, Reason: s.reason, Message: s.message, ResetAt: d.ResetAt}
	}
	return Result{Allowed: true, Remaining: d.Remaining, ResetAt: d.ResetAt}
}
