package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.AnalysisSession
	reads    int
	err      error

	markPaidFailures int // MarkPaid fails this many times before succeeding
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*domain.AnalysisSession)}
}

func (m *memSessions) Save(ctx context.Context, session *domain.AnalysisSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if prev, ok := m.sessions[session.ID]; ok {
		session.Paid = prev.Paid
		session.PaidAt = prev.PaidAt
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id string) (*domain.AnalysisSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markPaidFailures > 0 {
		m.markPaidFailures--
		return errors.New("mongo unavailable")
	}
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Paid = true
	s.PaidAt = paidAt
	return nil
}

type memCache struct {
	mu          sync.Mutex
	sessions    map[string]*domain.AnalysisSession
	invalidated []string
	setErr      error
}

func newMemCache() *memCache {
	return &memCache{sessions: make(map[string]*domain.AnalysisSession)}
}

func (m *memCache) SetSession(ctx context.Context, session *domain.AnalysisSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memCache) GetSession(ctx context.Context, id string) (*domain.AnalysisSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memCache) InvalidateSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.invalidated = append(m.invalidated, id)
	return nil
}

type memFiles struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *memFiles) Upload(ctx context.Context, file []byte, key string, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://photos.example.com/" + key, nil
}

type memInvoices struct {
	mu       sync.Mutex
	invoices []*domain.Invoice
	nextID   int
}

func (m *memInvoices) Create(ctx context.Context, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	invoice.ID = fmt.Sprintf("inv-%d", m.nextID)
	cp := *invoice
	m.invoices = append(m.invoices, &cp)
	return nil
}

func (m *memInvoices) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.Reference == reference {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memInvoices) GetPendingBySession(ctx context.Context, sessionID string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.invoices) - 1; i >= 0; i-- {
		inv := m.invoices[i]
		if inv.SessionID == sessionID && inv.Status == domain.InvoiceStatusPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memInvoices) UpdateStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.ID == id {
			inv.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

type captureEmail struct {
	sent []domain.EmailMessage
	err  error
}

func (c *captureEmail) Send(ctx context.Context, msg domain.EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}
