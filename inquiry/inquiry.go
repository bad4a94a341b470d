// Package inquiry stores and validates contact-form inquiries.
package inquiry

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Status is the workflow state of an inquiry.
type Status string

const (
	StatusNew  Status = "new"
	StatusRead Status = "read"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusNew || s == StatusRead
}

// NormalizeStatus maps anything that is not "read" to "new".
func NormalizeStatus(s string) Status {
	if Status(strings.ToLower(strings.TrimSpace(s))) == StatusRead {
		return StatusRead
	}
	return StatusNew
}

// Inquiry is a customer-submitted contact-form record.
type Inquiry struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Service   string     `json:"service,omitempty"`
	Message   string     `json:"message,omitempty"`
	Page      string     `json:"page"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Submission is the public form payload.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
	Page    string `json:"page"`
}

// ValidationError carries a message that is safe to show to the submitter.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Input limits for submissions.
const (
	maxNameLen    = 200
	maxEmailLen   = 320
	maxPhoneLen   = 50
	maxServiceLen = 100
	maxMessageLen = 5000
	maxPageLen    = 2048
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims whitespace from every field.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Service = strings.TrimSpace(s.Service)
	s.Message = strings.TrimSpace(s.Message)
	s.Page = strings.TrimSpace(s.Page)
}

// Validate checks required fields, the email shape and field lengths.
func (s Submission) Validate() error {
	if s.Name == "" || s.Email == "" || s.Phone == "" {
		return &ValidationError{Message: "Vyplňte povinná pole (jméno, email, telefon)"}
	}
	if !emailPattern.MatchString(s.Email) {
		return &ValidationError{Message: "Neplatný email"}
	}
	if len(s.Name) > maxNameLen || len(s.Email) > maxEmailLen || len(s.Phone) > maxPhoneLen ||
		len(s.Service) > maxServiceLen || len(s.Message) > maxMessageLen || len(s.Page) > maxPageLen {
		return &ValidationError{Message: "Příliš dlouhý vstup"}
	}
	return nil
}

// OtherService is the histogram bucket for inquiries without a service.
const OtherService = "Other"

// Histogram counts inquiries per service.
type Histogram map[string]int

// HistogramEntry is one bar of a histogram.
type HistogramEntry struct {
	Service string
	Count   int
}

// BuildHistogram derives the per-service counts from inquiries.
func BuildHistogram(items []Inquiry) Histogram {
	h := make(Histogram, len(items))
	for _, it := range items {
		svc := strings.TrimSpace(it.Service)
		if svc == "" {
			svc = OtherService
		}
		h[svc]++
	}
	return h
}

// Sorted returns the entries by count descending, then by name.
func (h Histogram) Sorted() []HistogramEntry {
	out := make([]HistogramEntry, 0, len(h))
	for svc, n := range h {
		out = append(out, HistogramEntry{Service: svc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Service < out[j].Service
	})
	return out
}
