package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/llm"
	"autovalue/internal/report"
	"autovalue/internal/repository"
)

const maxChatMessageLength = 2000

var ErrEmptyMessage = errors.New("message content is required")

const chatSystemPrompt = `You are a helpful assistant answering questions about one vehicle valuation.
Stay on the topic of the valuation below. If asked about something you do not know, say so.
Answer in plain text, at most 5 sentences.

`

// ChatService mantiene las sesiones del asistente sobre una valuacion.
type ChatService struct {
	logger     *zap.Logger
	sessions   repository.SessionRepository
	messages   repository.MessageRepository
	contextSvc ContextService
	valuations *ValuationService
	client     llm.LLMClient
	now        func() time.Time
}

func NewChatService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	contextSvc ContextService,
	valuations *ValuationService,
	client llm.LLMClient,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		logger:     logger,
		sessions:   sessions,
		messages:   messages,
		contextSvc: contextSvc,
		valuations: valuations,
		client:     client,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ChatService) CreateSession(ctx context.Context, userID, role, valuationID string) (domain.ChatSession, error) {
	if _, err := s.valuations.GetOwned(ctx, userID, role, valuationID); err != nil {
		return domain.ChatSession{}, err
	}
	session := domain.ChatSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		ValuationID: valuationID,
		CreatedAt:   s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.ChatSession{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *ChatService) ListMessages(ctx context.Context, userID, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return msgs, nil
}

// SendMessage guarda la pregunta, genera la respuesta y devuelve ambos mensajes.
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID, content string) (domain.ChatMessage, domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatMessage{}, domain.ChatMessage{}, ErrEmptyMessage
	}
	if len(content) > maxChatMessageLength {
		content = content[:maxChatMessageLength]
	}
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, err
	}
	valuation, err := s.valuations.Get(ctx, session.ValuationID)
	if err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, err
	}

	history, err := s.contextSvc.GetContext(ctx, sessionID)
	if err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, err
	}

	question := domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Role:      domain.ChatRoleUser,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.messages.Create(ctx, question); err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, fmt.Errorf("save message: %w", err)
	}

	replyText := s.reply(ctx, valuation, history, content)
	reply := domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Role:      domain.ChatRoleAssistant,
		Content:   replyText,
		CreatedAt: s.now().Add(time.Millisecond),
	}
	if err := s.messages.Create(ctx, reply); err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, fmt.Errorf("save reply: %w", err)
	}
	return question, reply, nil
}

func (s *ChatService) reply(ctx context.Context, v domain.Valuation, history []llm.Message, question string) string {
	if s.client != nil {
		msgs := append(append([]llm.Message(nil), history...), llm.Message{Role: llm.RoleUser, Content: question})
		out, err := s.client.Generate(ctx, chatSystemPrompt+valuationPrompt(v), msgs)
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		s.logger.Warn("llm chat reply failed, using template", zap.String("valuation_id", v.ID), zap.Error(err))
	}
	return templateReply(v, question)
}

func templateReply(v domain.Valuation, question string) string {
	q := strings.ToLower(question)
	res := v.Result
	for _, a := range res.Adjustments {
		if strings.Contains(q, a.Factor) {
			return fmt.Sprintf("%s changed the value by %s (multiplier x%.2f).", a.Description, report.FormatUSD(a.Impact), a.Multiplier)
		}
	}
	if strings.Contains(q, "confiden") {
		return fmt.Sprintf("Confidence is %d%%. Completing the follow-up questions about condition, accidents, title and maintenance raises it.", res.Confidence)
	}
	return fmt.Sprintf("The %s is estimated at %s (range %s to %s). Ask about age, mileage, condition, accidents, title or maintenance to see how each one affected the value.",
		report.VehicleTitle(v.Vehicle), report.FormatUSD(res.Estimate), report.FormatUSD(res.PriceRange.Low), report.FormatUSD(res.PriceRange.High))
}

func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID string) (domain.ChatSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return domain.ChatSession{}, ErrForbidden
	}
	return session, nil
}
