// Package fetcher wraps single paginated requests with the pacing and
// retry policy the remote quota demands. Callers must not reach the
// transport directly, or the external quota can be exceeded.
//
// Known limitation: distinct jobs sharing one account pace themselves
// independently; account-level quota is not coordinated across jobs.
package fetcher

import (
	"context"
	"time"

	"tweetarc/pkg/errors"
	"tweetarc/pkg/logger"
	"tweetarc/pkg/ratelimit"
	"tweetarc/pkg/retry"
	"tweetarc/pkg/twitter"
)

const (
	// MinRequestSpacing is the minimum gap between consecutive requests.
	MinRequestSpacing = time.Second

	// quotaRetryDelay applies when the limit is hit but headroom remains.
	quotaRetryDelay = time.Second
	// transientRetryDelay applies to server overload and unknown statuses.
	transientRetryDelay = 5 * time.Second

	// DefaultPerseverance is the default retry budget per page.
	DefaultPerseverance = 10
)

// Client is the transport view the fetcher needs.
type Client interface {
	SearchPage(ctx context.Context, params twitter.SearchParams, nextToken string) (*twitter.Result, error)
}

// Fetcher issues one paginated request at a time, absorbing transient
// failures and surfacing only the fatal kinds.
type Fetcher struct {
	client       Client
	pacer        ratelimit.Pacer
	perseverance int
	logger       logger.Logger
}

// New creates a Fetcher. perseverance is the retry budget per Fetch call;
// 0 means unbounded.
func New(client Client, pacer ratelimit.Pacer, perseverance int, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = ratelimit.NewPacer(MinRequestSpacing)
	}
	return &Fetcher{
		client:       client,
		pacer:        pacer,
		perseverance: perseverance,
		logger:       log,
	}
}

// Fetch retrieves one page, retrying transient failures. It validates
// MaxResults locally before any network activity.
func (f *Fetcher) Fetch(ctx context.Context, params twitter.SearchParams, nextToken string) (*twitter.Page, error) {
	if params.MaxResults < 10 || params.MaxResults > 500 {
		return nil, errors.Newf(errors.ErrorTypeInvalidInput,
			"max_results %d outside [10, 500]", params.MaxResults)
	}

	lastStatus := 0
	for attempt := 1; ; attempt++ {
		if f.perseverance > 0 && attempt > f.perseverance {
			e := errors.Newf(errors.ErrorTypeRequestExhausted,
				"no successful response after %d attempts", f.perseverance)
			e.Status = lastStatus
			return nil, e
		}

		if err := f.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := f.client.SearchPage(ctx, params, nextToken)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastStatus = 0
			f.logger.WarnWithFields("request failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			if err := retry.Wait(ctx, transientRetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		lastStatus = res.Status
		switch {
		case res.Status >= 200 && res.Status < 300:
			return res.Page, nil

		case res.Status == 429:
			if err := f.waitForQuota(ctx, res.RateLimit, attempt); err != nil {
				return nil, err
			}

		case res.Status == 400:
			detail := ""
			if res.APIError != nil {
				detail = res.APIError.Render()
			}
			e := errors.New(errors.ErrorTypeInvalidQuery, "query rejected by the API")
			e.Status = res.Status
			e.Detail = detail
			return nil, e

		case res.Status >= 500:
			f.logger.WarnWithFields("server unavailable, backing off", map[string]interface{}{
				"status":  res.Status,
				"attempt": attempt,
			})
			if err := retry.Wait(ctx, transientRetryDelay); err != nil {
				return nil, err
			}

		default:
			// Permissive catch-all for unknown transient conditions.
			f.logger.WarnWithFields("unexpected status, retrying", map[string]interface{}{
				"status":  res.Status,
				"attempt": attempt,
			})
			if err := retry.Wait(ctx, transientRetryDelay); err != nil {
				return nil, err
			}
		}
	}
}

// waitForQuota handles a 429. Headroom left means a short pause; an empty
// window means one deterministic sleep until the reported reset instant.
func (f *Fetcher) waitForQuota(ctx context.Context, state twitter.RateLimitState, attempt int) error {
	if state.Remaining == 0 && !state.Reset.IsZero() {
		f.logger.WarnWithFields("rate limit exhausted, sleeping until reset", map[string]interface{}{
			"reset":   state.Reset,
			"attempt": attempt,
		})
		return retry.WaitUntil(ctx, state.Reset)
	}
	f.logger.WarnWithFields("rate limited with quota remaining, retrying shortly", map[string]interface{}{
		"remaining": state.Remaining,
		"attempt":   attempt,
	})
	return retry.Wait(ctx, quotaRetryDelay)
}
