package saga

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/adapter"
	"github.com/voxprohub/service-booking/internal/domain/payment"
)

// QRISSagaService orchestrates QR issuance against the external gateway.
type QRISSagaService struct {
	sessions payment.SessionRepository
	gateway  adapter.QRISAdapter
	logger   *zap.Logger
}

// NewQRISSagaService creates a new QRISSagaService.
func NewQRISSagaService(sessions payment.SessionRepository, gateway adapter.QRISAdapter, logger *zap.Logger) *QRISSagaService {
	return &QRISSagaService{
		sessions: sessions,
		gateway:  gateway,
		logger:   logger,
	}
}

// IssueQRSaga creates a payment session, acquires a gateway token, requests QR
// issuance and persists the QR payload. On failure the stale session is
// removed so a retry starts clean; the provider reference stays the same
// either way, so retried issuance is idempotent on the provider side.
func (s *QRISSagaService) IssueQRSaga(ctx context.Context, bookingID uuid.UUID, amount int64, description string) (*payment.Session, error) {
	session := payment.NewSession(bookingID, "", amount)
	if description == "" {
		description = fmt.Sprintf("Pembayaran Booking %s", bookingID)
	}

	var token string

	sg := New("issue_qr", s.logger)

	// Step 1: Persist the session shell so the reference is claimed.
	sg.AddStep(Step{
		Name: "save_session",
		Execute: func(ctx context.Context) error {
			return s.sessions.Save(ctx, session)
		},
		Compensate: func(ctx context.Context) error {
			return s.sessions.DeleteByBookingID(ctx, bookingID)
		},
	})

	// Step 2: Client-credential exchange.
	sg.AddStep(Step{
		Name: "acquire_token",
		Execute: func(ctx context.Context) error {
			var err error
			token, err = s.gateway.AcquireToken(ctx)
			return err
		},
		Compensate: nil, // Tokens are short-lived; nothing to undo.
	})

	// Step 3: Request the QR code and persist its payload.
	sg.AddStep(Step{
		Name: "issue_qr",
		Execute: func(ctx context.Context) error {
			qrData, err := s.gateway.IssueQR(ctx, token, session.ReferenceID(), description, amount)
			if err != nil {
				return err
			}
			session.AttachQR(qrData)
			return s.sessions.Update(ctx, session)
		},
		Compensate: nil,
	})

	if err := sg.Execute(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// ReissueQRSaga refreshes the QR payload of an existing session, keeping the
// deterministic reference.
func (s *QRISSagaService) ReissueQRSaga(ctx context.Context, session *payment.Session, description string) (*payment.Session, error) {
	if description == "" {
		description = fmt.Sprintf("Pembayaran Booking %s", session.BookingID())
	}

	token, err := s.gateway.AcquireToken(ctx)
	if err != nil {
		return nil, err
	}
	qrData, err := s.gateway.IssueQR(ctx, token, session.ReferenceID(), description, session.Amount())
	if err != nil {
		return nil, err
	}
	session.AttachQR(qrData)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
