package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eringen/montaze/inquiry"
)

// RecentInquiries is how many inquiries the dashboard keeps.
const RecentInquiries = 20

// ErrUnauthenticated is returned by MarkRead for anonymous sessions.
var ErrUnauthenticated = errors.New("dashboard: not authenticated")

// Session is the caller's authentication state.
type Session struct {
	Authenticated bool
}

// InquirySource lists and updates stored inquiries. *inquiry.Store satisfies it.
type InquirySource interface {
	List(ctx context.Context, opts inquiry.ListOptions) ([]inquiry.Inquiry, int, error)
	UpdateStatus(ctx context.Context, id string, status inquiry.Status) error
}

// InquiryResult is one successful inquiry load.
type InquiryResult struct {
	Items    []inquiry.Inquiry
	Services inquiry.Histogram
	Total    int
	New      int
}

// InquiryLoader loads the inquiry section of the dashboard.
type InquiryLoader struct {
	source InquirySource
	log    logrus.FieldLogger
}

// NewInquiryLoader creates a loader over source.
func NewInquiryLoader(source InquirySource, log logrus.FieldLogger) *InquiryLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &InquiryLoader{source: source, log: log}
}

// Load fetches the most recent inquiries with totals. It reports false and
// touches nothing when the session is anonymous or the source fails.
func (l *InquiryLoader) Load(ctx context.Context, sess Session) (InquiryResult, bool) {
	if !sess.Authenticated || l.source == nil {
		return InquiryResult{}, false
	}
	res, err := l.load(ctx)
	if err != nil {
		l.log.WithError(err).Error("inquiry load failed")
		return InquiryResult{}, false
	}
	return res, true
}

func (l *InquiryLoader) load(ctx context.Context) (InquiryResult, error) {
	items, total, err := l.source.List(ctx, inquiry.ListOptions{Limit: RecentInquiries})
	if err != nil {
		return InquiryResult{}, fmt.Errorf("list inquiries: %w", err)
	}
	_, unread, err := l.source.List(ctx, inquiry.ListOptions{Limit: 1, Status: inquiry.StatusNew})
	if err != nil {
		return InquiryResult{}, fmt.Errorf("count new inquiries: %w", err)
	}
	for i := range items {
		items[i].Status = inquiry.NormalizeStatus(string(items[i].Status))
	}
	return InquiryResult{
		Items:    items,
		Services: inquiry.BuildHistogram(items),
		Total:    total,
		New:      unread,
	}, nil
}

// MarkRead sets the inquiry's status to read and reloads the whole section.
// The returned result is the fresh load; no local patching is done.
func (l *InquiryLoader) MarkRead(ctx context.Context, sess Session, id string) (InquiryResult, error) {
	if !sess.Authenticated {
		return InquiryResult{}, ErrUnauthenticated
	}
	if l.source == nil {
		return InquiryResult{}, errors.New("dashboard: no inquiry source")
	}
	if err := l.source.UpdateStatus(ctx, id, inquiry.StatusRead); err != nil {
		return InquiryResult{}, fmt.Errorf("mark %s read: %w", id, err)
	}
	res, err := l.load(ctx)
	if err != nil {
		return InquiryResult{}, err
	}
	return res, nil
}
