// authenticationhandler/auth_app_ticket.go
package authenticationhandler

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AppTicketSource returns the latest app_ticket pushed to a marketplace app.
// An empty ticket with a nil error means none has arrived yet.
type AppTicketSource interface {
	AppTicket(ctx context.Context, appID string) (string, error)
}

// MemoryAppTicketStore keeps app tickets in process memory. The event
// callback that receives app_ticket pushes calls SetAppTicket.
type MemoryAppTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]string
}

// NewMemoryAppTicketStore returns an empty store.
func NewMemoryAppTicketStore() *MemoryAppTicketStore {
	return &MemoryAppTicketStore{tickets: make(map[string]string)}
}

// AppTicket implements AppTicketSource.
func (s *MemoryAppTicketStore) AppTicket(_ context.Context, appID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickets[appID], nil
}

// SetAppTicket stores the ticket pushed for appID.
func (s *MemoryAppTicketStore) SetAppTicket(appID, ticket string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[appID] = ticket
}

// requestAppTicketResend asks the platform to push a new app_ticket. The
// ticket arrives asynchronously through the event callback, so failures are
// only logged.
func (h *AuthTokenHandler) requestAppTicketResend(ctx context.Context) {
	_, err := h.postJSON(ctx, appTicketResendPath, map[string]string{
		"app_id":     h.Credential.AppID,
		"app_secret": h.Credential.AppSecret,
	}, "")
	if err != nil {
		h.Logger.Warn("Failed to request app_ticket resend", zap.String("app_id", h.Credential.AppID), zap.Error(err))
		return
	}
	h.Logger.Info("Requested app_ticket resend", zap.String("app_id", h.Credential.AppID))
}
