package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/api/metrics"
	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

const pathChat = "/chat"

// ChatService relays free-text questions to the assistant endpoint. It
// keeps no history and caches nothing; transcripts belong to the caller.
type ChatService struct {
	dispatcher ports.Dispatcher
	guard      ports.SessionGuard
	log        zerolog.Logger
	now        func() time.Time
}

// NewChatService creates a ChatService. guard may be nil.
func NewChatService(dispatcher ports.Dispatcher, guard ports.SessionGuard, logger zerolog.Logger) *ChatService {
	return &ChatService{
		dispatcher: dispatcher,
		guard:      guard,
		log:        logger.With().Str("component", "chat").Logger(),
		now:        time.Now,
	}
}

// Ask sends message, with an optional patient context, and returns the
// assistant's reply. Failures are returned immediately.
func (s *ChatService) Ask(ctx context.Context, message, patientContext string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyMessage
	}
	if s.guard != nil {
		if err := s.guard.RequireAuthenticated(); err != nil {
			return "", err
		}
	}

	resp, err := s.dispatcher.Send(ctx, http.MethodPost, pathChat, domain.ChatRequest{
		Message:        message,
		PatientContext: strings.TrimSpace(patientContext),
		Timestamp:      s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		result := string(domain.KindOf(err))
		if result == "" {
			result = "error"
		}
		metrics.ChatExchangesTotal.WithLabelValues(result).Inc()
		return "", err
	}

	var reply domain.ChatResponse
	if err := resp.Decode(&reply); err != nil {
		metrics.ChatExchangesTotal.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("chat: %w", err)
	}

	metrics.ChatExchangesTotal.WithLabelValues("ok").Inc()
	s.log.Debug().Int("reply_len", len(reply.Response)).Msg("assistant replied")
	return reply.Response, nil
}
