package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"autovalue/internal/domain"
	"autovalue/internal/llm"
	"autovalue/internal/repository"
)

// chatContextWindow es la cantidad de mensajes previos que se envian al LLM.
const chatContextWindow = 10

// ContextService recupera el historial reciente de una sesion de chat.
type ContextService interface {
	GetContext(ctx context.Context, sessionID string) ([]llm.Message, error)
}

// BasicContextService obtiene los ultimos mensajes en orden cronologico.
type BasicContextService struct {
	messageRepo repository.MessageRepository
}

func NewBasicContextService(messageRepo repository.MessageRepository) *BasicContextService {
	return &BasicContextService{messageRepo: messageRepo}
}

func (s *BasicContextService) GetContext(ctx context.Context, sessionID string) ([]llm.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}

	messages, err := s.messageRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	if len(messages) > chatContextWindow {
		messages = messages[len(messages)-chatContextWindow:]
	}

	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Role == domain.ChatRoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out, nil
}
