package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ProcessorConfig holds the periodic job intervals.
type ProcessorConfig struct {
	// PollInterval is how often pending entries are retried (default: 30s)
	PollInterval time.Duration

	// ReportInterval is how often the summary tab is rewritten (default: 1h).
	// Zero disables reports.
	ReportInterval time.Duration
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:   30 * time.Second,
		ReportInterval: time.Hour,
	}
}

// Processor runs the pending-sync retry and the summary report on tickers.
type Processor struct {
	sync     *SyncWorker
	reporter *Reporter
	config   ProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewProcessor wires the periodic jobs. reporter may be nil.
func NewProcessor(sw *SyncWorker, reporter *Reporter, config ProcessorConfig) *Processor {
	return &Processor{
		sync:     sw,
		reporter: reporter,
		config:   config,
	}
}

// Start begins the loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Processor started",
		"poll_interval", p.config.PollInterval,
		"report_interval", p.config.ReportInterval)
	return nil
}

// Stop signals the loop and waits for it to finish.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	var reportC <-chan time.Time
	if p.reporter != nil && p.config.ReportInterval > 0 {
		reportTicker := time.NewTicker(p.config.ReportInterval)
		defer reportTicker.Stop()
		reportC = reportTicker.C
		p.publishReport(ctx)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			if err := p.sync.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sync failed", "error", err)
			}
		case <-reportC:
			p.publishReport(ctx)
		}
	}
}

func (p *Processor) publishReport(ctx context.Context) {
	if err := p.reporter.Publish(ctx); err != nil {
		slog.ErrorContext(ctx, "Summary report failed", "error", err)
	}
}
