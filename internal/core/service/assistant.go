package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// CannedAssistant is the stub server's assistant. It echoes the question
// back in a fixed template.
type CannedAssistant struct {
	now func() time.Time
}

func NewCannedAssistant() *CannedAssistant {
	return &CannedAssistant{now: time.Now}
}

func (a *CannedAssistant) Reply(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	reply := fmt.Sprintf("You asked: '%s'. This is a sample AI reply.", req.Message)
	if req.PatientContext != "" {
		reply += fmt.Sprintf(" (Context: %s)", req.PatientContext)
	}
	return &domain.ChatResponse{
		Message:   req.Message,
		Response:  reply,
		Timestamp: a.now().UTC().Format(time.RFC3339),
	}, nil
}

var _ ports.Assistant = (*CannedAssistant)(nil)
