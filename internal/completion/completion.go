package completion

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"agenthub/internal/agents"
	"agenthub/internal/session"
	"agenthub/pkg/config"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Enricher дополняет текст сообщения внешними данными (поиск, карты).
type Enricher interface {
	Web(ctx context.Context, query string) string
	Places(ctx context.Context, query string) string
}

type Service struct {
	client   *openai.Client
	model    string
	enricher Enricher
}

func NewService(cfg *config.Config, enricher Enricher) *Service {
	clientConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = openai.GPT4Dot1
	}

	return &Service{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		enricher: enricher,
	}
}

var _ session.Completer = (*Service)(nil)

// Reply отправляет модели преамбулу персоны и всю историю диалога,
// завершающуюся свежей пользовательской репликой, и возвращает один ответ.
// Любой отказ (сеть, статус, пустой ответ) для вызывающего одинаков.
func (s *Service) Reply(ctx context.Context, agentID string, history []session.HistoryItem, attachments []session.Attachment) (string, error) {
	messages := s.buildMessages(ctx, agentID, history, attachments)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		logrus.Errorf("Ошибка при запросе к модели для персоны %s: %v", agentID, err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("нет ответа от модели")
	}

	return resp.Choices[0].Message.Content, nil
}

// buildMessages собирает запрос: системная преамбула выбранной персоны,
// история как есть, последняя пользовательская реплика — с обогащением.
// Преамбула берётся строго по agentID, чужая персона сюда попасть не может.
func (s *Service) buildMessages(ctx context.Context, agentID string, history []session.HistoryItem, attachments []session.Attachment) []openai.ChatCompletionMessage {
	agent := agents.GetOrDefault(agentID)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: agent.SystemPrompt,
	})

	for _, item := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    item.Role,
			Content: item.Content,
		})
	}

	last := len(messages) - 1
	if last > 0 && messages[last].Role == openai.ChatMessageRoleUser {
		messages[last].Content = s.enrich(ctx, messages[last].Content, attachments)
	}

	return messages
}

var (
	searchTriggers = regexp.MustCompile(`(?i)search for|google`)
	placesTriggers = regexp.MustCompile(`(?i)find places|location|near me`)
)

func (s *Service) enrich(ctx context.Context, content string, attachments []session.Attachment) string {
	enriched := content
	lower := strings.ToLower(content)

	if s.enricher != nil {
		if strings.Contains(lower, "search for") || strings.Contains(lower, "google") {
			if query := strings.TrimSpace(searchTriggers.ReplaceAllString(content, "")); query != "" {
				enriched += "\n\n" + s.enricher.Web(ctx, query)
			}
		}

		if strings.Contains(lower, "find places") || strings.Contains(lower, "location") || strings.Contains(lower, "near me") {
			if query := strings.TrimSpace(placesTriggers.ReplaceAllString(content, "")); query != "" {
				enriched += "\n\n" + s.enricher.Places(ctx, query)
			}
		}
	}

	if len(attachments) > 0 {
		var b strings.Builder
		b.WriteString("\n\nFiles uploaded:")
		for _, att := range attachments {
			if att.Name == "" {
				continue
			}
			fmt.Fprintf(&b, "\n- %s (%s)", att.Name, att.Type)
		}
		enriched += b.String()
	}

	return enriched
}
