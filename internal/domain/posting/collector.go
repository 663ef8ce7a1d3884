package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/logging"
	"github.com/honeycarbs/jobingest/pkg/retry"
)

// Stop reasons reported per source
const (
	StopQuota        = "quota_reached"
	StopExhausted    = "exhausted"
	StopPageBudget   = "page_budget"
	StopRateLimited  = "rate_limited"
	StopNotConfigure = "not_configured"
	StopSkipped      = "zero_quota"
	StopStoreError   = "store_error"
	StopPanic        = "panic"
)

// SourceReport summarises one source's contribution to a run
type SourceReport struct {
	Source     domain.Source
	Quota      int
	Pages      int
	Duplicates int
	Postings   []domain.Posting
	StopReason string
	Err        error
}

type collector struct {
	gateway  *Gateway
	log      *logging.Logger
	recorder Recorder
}

// collect pages through one source until the quota is met, a short page
// arrives, the page budget is spent, or a terminal error occurs. Postings
// gathered before a failure, including a panic in the adapter, are kept.
func (c *collector) collect(ctx context.Context, src SourceConfig, query, location string, quota int) (report SourceReport) {
	adapter := src.Adapter
	source := adapter.Source()
	log := c.log.With("source", source, "query", query, "location", location)

	report = SourceReport{Source: source, Quota: quota, Postings: []domain.Posting{}}
	defer func() {
		if r := recover(); r != nil {
			log.Error("source panicked, keeping postings collected so far", "panic", r, "collected", len(report.Postings))
			report.StopReason = StopPanic
			report.Err = fmt.Errorf("%s: panic: %v", source, r)
		}
	}()

	if quota <= 0 {
		report.StopReason = StopSkipped
		return report
	}

	pageSize := adapter.PageSize()
	if pageSize <= 0 {
		pageSize = 1
	}
	maxPages := src.MaxPages
	if maxPages <= 0 {
		maxPages = (quota + pageSize - 1) / pageSize
	}

	policy := src.Policy.retryConfig()
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.recorder.RateLimited(source, true)
		log.Warn("rate limited, backing off before retrying page",
			"attempt", attempt, "max_attempts", policy.MaxAttempts, "backoff", wait, "err", err)
	}

	for page := 1; page <= maxPages; page++ {
		// the delay runs from the end of the previous page, retries included
		if page > 1 && src.PageDelay > 0 {
			if err := sleep(ctx, src.PageDelay); err != nil {
				report.Err = err
				report.StopReason = terminalReason(err)
				return report
			}
		}

		var fetched Page
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			p, err := adapter.FetchPage(ctx, query, location, page)
			if err != nil {
				return err
			}
			fetched = p
			return nil
		})
		if err != nil {
			return c.stop(log, report, page, err)
		}

		report.Pages++
		c.recorder.PageFetched(source, "ok")
		log.Debug("page fetched", "page", page, "postings", len(fetched.Postings), "full", fetched.Full)

		for _, p := range fetched.Postings {
			if len(report.Postings) >= quota {
				break
			}
			stored, isNew, err := c.gateway.Admit(ctx, p)
			if err != nil {
				log.Error("persisting posting failed, stopping source", "identity_key", p.IdentityKey, "err", err)
				report.Err = err
				report.StopReason = StopStoreError
				return report
			}
			c.recorder.PostingAdmitted(source, isNew)
			if !isNew {
				report.Duplicates++
				log.Debug("posting already stored, skipping", "identity_key", p.IdentityKey)
				continue
			}
			report.Postings = append(report.Postings, stored)
		}

		if len(report.Postings) >= quota {
			report.StopReason = StopQuota
			return report
		}
		if !fetched.Full {
			report.StopReason = StopExhausted
			return report
		}
	}

	report.StopReason = StopPageBudget
	return report
}

func (c *collector) stop(log *logging.Logger, report SourceReport, page int, err error) SourceReport {
	switch {
	case errors.Is(err, ErrNotConfigured):
		log.Warn("source credentials not configured, skipping")
		report.StopReason = StopNotConfigure
	case errors.Is(err, ErrRateLimited):
		c.recorder.PageFetched(report.Source, "rate_limited")
		c.recorder.RateLimited(report.Source, false)
		log.Warn("rate limit ends paging for source", "page", page, "collected", len(report.Postings), "err", err)
		report.StopReason = StopRateLimited
	default:
		c.recorder.PageFetched(report.Source, terminalReason(err))
		log.Error("page fetch failed, stopping source", "page", page, "collected", len(report.Postings), "err", err)
		report.StopReason = terminalReason(err)
		report.Err = err
	}
	return report
}
