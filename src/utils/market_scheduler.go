package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"trading-backend/src/logger"
)

// RefreshFunc performs one full quote refresh
type RefreshFunc func(ctx context.Context) error

// MarketScheduler triggers refreshes on a fixed interval. At most one refresh
// runs at a time; a tick that finds one in flight is skipped. With a Calendar
// set, ticks outside trading hours are skipped too.
type MarketScheduler struct {
	Interval time.Duration
	Calendar *TradingCalendar
	Refresh  RefreshFunc
	Logger   *logger.Logger
	Now      func() time.Time

	running atomic.Bool
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(interval time.Duration, cal *TradingCalendar, refresh RefreshFunc, l *logger.Logger) *MarketScheduler {
	return &MarketScheduler{
		Interval: interval,
		Calendar: cal,
		Refresh:  refresh,
		Logger:   l,
		Now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// MarketOpen reports whether refreshes are currently allowed
func (ms *MarketScheduler) MarketOpen() bool {
	if ms.Calendar == nil {
		return true
	}
	return ms.Calendar.IsOpenOnMinute(ms.Now())
}

// -----------------------------------------------------------------------------

// RunOnce runs a refresh unless one is already running or the market is closed.
// ran is false when the refresh was skipped.
func (ms *MarketScheduler) RunOnce(ctx context.Context) (ran bool, err error) {
	if !ms.MarketOpen() {
		ms.Logger.Debug("MarketScheduler: market closed, skipping refresh")
		return false, nil
	}

	if !ms.running.CompareAndSwap(false, true) {
		ms.Logger.Warning("MarketScheduler: previous refresh still running, skipping")
		return false, nil
	}
	defer ms.running.Store(false)

	started := ms.Now()
	if err := ms.Refresh(ctx); err != nil {
		ms.Logger.Error("MarketScheduler: refresh failed after %s: %v", ms.Now().Sub(started), err)
		return true, err
	}

	ms.Logger.Debug("MarketScheduler: refresh done in %s", ms.Now().Sub(started))
	return true, nil
}

// -----------------------------------------------------------------------------

// Start runs the refresh loop until ctx is done. Each tick runs the refresh in
// its own goroutine so a slow refresh surfaces as skipped ticks.
func (ms *MarketScheduler) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(ms.Interval)
		defer ticker.Stop()

		ms.Logger.Info("MarketScheduler: refreshing every %s", ms.Interval)

		var inflight sync.WaitGroup
		defer inflight.Wait()

		for {
			select {
			case <-ctx.Done():
				ms.Logger.Info("MarketScheduler: stopped")
				return
			case <-ticker.C:
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					_, _ = ms.RunOnce(ctx)
				}()
			}
		}
	}()
}

// -----------------------------------------------------------------------------

// Running reports whether a refresh is in flight
func (ms *MarketScheduler) Running() bool {
	return ms.running.Load()
}
