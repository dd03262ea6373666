package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	command "github.com/goliatone/go-command"

	blogcommands "github.com/goliatone/go-cms-blog/commands"
)

const everyPrefix = "@every "

// tickerScheduler runs cron handlers registered with "@every <duration>"
// expressions until its context is cancelled.
type tickerScheduler struct {
	ctx    context.Context
	wg     sync.WaitGroup
	onFail func(error)
}

func newTickerScheduler(ctx context.Context, onFail func(error)) *tickerScheduler {
	if onFail == nil {
		onFail = func(error) {}
	}
	return &tickerScheduler{ctx: ctx, onFail: onFail}
}

func (s *tickerScheduler) Registrar() blogcommands.CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		fn, ok := handler.(func() error)
		if !ok {
			return fmt.Errorf("schedule: unsupported handler %T", handler)
		}
		interval, err := parseEvery(cfg.Expression)
		if err != nil {
			return err
		}
		s.wg.Add(1)
		go s.run(interval, fn)
		return nil
	}
}

func (s *tickerScheduler) run(interval time.Duration, fn func() error) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := fn(); err != nil {
				s.onFail(err)
			}
		}
	}
}

// Wait blocks until every scheduled loop has returned.
func (s *tickerScheduler) Wait() {
	s.wg.Wait()
}

func parseEvery(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, everyPrefix) {
		return 0, fmt.Errorf("schedule: only %q expressions are supported, got %q", everyPrefix+"<duration>", expr)
	}
	interval, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(expr, everyPrefix)))
	if err != nil {
		return 0, fmt.Errorf("schedule: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("schedule: interval must be positive, got %s", interval)
	}
	return interval, nil
}
