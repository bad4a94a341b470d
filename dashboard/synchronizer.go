// Package dashboard merges demo data, the analytics summary and the inquiry
// list into the admin dashboard's view model and renders it.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/montaze/analytics"
)

// DefaultLoadTimeout bounds a single background load.
const DefaultLoadTimeout = 15 * time.Second

// Synchronizer owns the selected period and the view model. Loads run in the
// background; a result is applied only if no newer load of the same section
// has been applied already.
type Synchronizer struct {
	analytics *AnalyticsLoader
	inquiries *InquiryLoader
	log       logrus.FieldLogger
	timeout   time.Duration

	seq atomic.Uint64

	mu               sync.RWMutex
	period           analytics.Period
	vm               ViewModel
	analyticsApplied uint64
	inquiryApplied   uint64
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithLoadTimeout bounds each background load. Zero keeps the default.
func WithLoadTimeout(d time.Duration) SyncOption {
	return func(s *Synchronizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSynchronizer starts on the default period with demo data in every section.
func NewSynchronizer(al *AnalyticsLoader, il *InquiryLoader, log logrus.FieldLogger, opts ...SyncOption) *Synchronizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Synchronizer{
		analytics: al,
		inquiries: il,
		log:       log,
		timeout:   DefaultLoadTimeout,
		period:    analytics.DefaultPeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.vm = newDemoViewModel(s.period, al.Synthetic(s.period))
	return s
}

// Period returns the selected period.
func (s *Synchronizer) Period() analytics.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period
}

// Snapshot returns a copy of the current view model.
func (s *Synchronizer) Snapshot() ViewModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vm.clone()
}

// SetPeriod selects p (falling back to the default for unknown values) and
// reloads both sections. The returned channel is closed once both loads
// finished; callers may ignore it.
func (s *Synchronizer) SetPeriod(ctx context.Context, sess Session, p analytics.Period) <-chan struct{} {
	if !p.Valid() {
		s.log.WithField("period", p).Warn("unknown period, using default")
		p = analytics.DefaultPeriod
	}
	s.mu.Lock()
	s.period = p
	s.mu.Unlock()
	return s.load(ctx, sess, p)
}

// Refresh reloads both sections for the selected period.
func (s *Synchronizer) Refresh(ctx context.Context, sess Session) <-chan struct{} {
	return s.load(ctx, sess, s.Period())
}

// MarkRead marks the inquiry read and applies the reloaded inquiry section
// before returning.
func (s *Synchronizer) MarkRead(ctx context.Context, sess Session, id string) error {
	seq := s.seq.Add(1)
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	res, err := s.inquiries.MarkRead(lctx, sess, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("mark read failed")
		return err
	}
	s.applyInquiries(seq, res)
	return nil
}

func (s *Synchronizer) load(ctx context.Context, sess Session, p analytics.Period) <-chan struct{} {
	seq := s.seq.Add(1)
	base := context.WithoutCancel(ctx)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lctx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()
		s.applyAnalytics(seq, s.analytics.Load(lctx, p))
	}()
	go func() {
		defer wg.Done()
		lctx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()
		if res, ok := s.inquiries.Load(lctx, sess); ok {
			s.applyInquiries(seq, res)
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (s *Synchronizer) applyAnalytics(seq uint64, res AnalyticsResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.analyticsApplied {
		s.log.WithFields(logrus.Fields{"seq": seq, "period": res.Period}).Debug("discarding stale analytics")
		return
	}
	s.analyticsApplied = seq

	s.vm.Period = res.Period
	s.vm.Traffic = res.Traffic
	s.vm.Demo.Traffic = res.Synthetic
	if res.Pages != nil {
		s.vm.Pages = res.Pages
		s.vm.Demo.Pages = false
	}
	if res.Referrers != nil {
		s.vm.Referrers = res.Referrers
		s.vm.Demo.Referrers = false
	}
	if res.Devices != nil {
		s.vm.Devices = res.Devices
		s.vm.Demo.Devices = false
	}
	s.vm.recomputeTraffic()
}

func (s *Synchronizer) applyInquiries(seq uint64, res InquiryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.inquiryApplied {
		s.log.WithField("seq", seq).Debug("discarding stale inquiries")
		return
	}
	s.inquiryApplied = seq

	s.vm.Inquiries = res.Items
	s.vm.Services = res.Services
	s.vm.KPIs.InquiryCount = res.Total
	s.vm.KPIs.NewInquiries = res.New
	s.vm.Demo.Inquiries = false
}
