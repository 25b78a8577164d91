package completion

import (
	"context"
	"strings"
	"testing"

	"agenthub/internal/agents"
	"agenthub/internal/session"
	"agenthub/pkg/config"

	"github.com/sashabaranov/go-openai"
)

type fakeEnricher struct {
	webCalls    []string
	placesCalls []string
}

func (f *fakeEnricher) Web(ctx context.Context, query string) string {
	f.webCalls = append(f.webCalls, query)
	return "Search results for " + query
}

func (f *fakeEnricher) Places(ctx context.Context, query string) string {
	f.placesCalls = append(f.placesCalls, query)
	return "Places found for " + query
}

func newTestService(enricher Enricher) *Service {
	return NewService(&config.Config{OpenAIKey: "test"}, enricher)
}

func TestBuildMessages_PreamblePerAgent(t *testing.T) {
	svc := newTestService(nil)
	history := []session.HistoryItem{{Role: "user", Content: "привет"}}

	for _, id := range []string{"ceo", "hunarbot", "buzzbot"} {
		messages := svc.buildMessages(context.Background(), id, history, nil)
		if messages[0].Role != openai.ChatMessageRoleSystem {
			t.Fatalf("first message must be the system preamble")
		}
		want := agents.GetOrDefault(id).SystemPrompt
		if messages[0].Content != want {
			t.Fatalf("agent %q got a foreign preamble", id)
		}
	}

	messages := svc.buildMessages(context.Background(), "nosuch", history, nil)
	if messages[0].Content != agents.GetOrDefault(agents.DefaultAgentID).SystemPrompt {
		t.Fatalf("unknown agent must fall back to the default preamble")
	}
}

func TestBuildMessages_HistoryOrder(t *testing.T) {
	svc := newTestService(nil)
	history := []session.HistoryItem{
		{Role: "user", Content: "вопрос"},
		{Role: "assistant", Content: "ответ"},
		{Role: "user", Content: "уточнение"},
	}

	messages := svc.buildMessages(context.Background(), "ceo", history, nil)
	if len(messages) != 4 {
		t.Fatalf("expected system + 3 history messages, got %d", len(messages))
	}
	for i, item := range history {
		if messages[i+1].Role != item.Role || messages[i+1].Content != item.Content {
			t.Fatalf("history item %d out of order: %+v", i, messages[i+1])
		}
	}
}

func TestEnrich_SearchTrigger(t *testing.T) {
	enricher := &fakeEnricher{}
	svc := newTestService(enricher)

	got := svc.enrich(context.Background(), "search for HR trends 2026", nil)
	if len(enricher.webCalls) != 1 {
		t.Fatalf("expected one web search, got %d", len(enricher.webCalls))
	}
	if enricher.webCalls[0] != "HR trends 2026" {
		t.Fatalf("trigger words must be stripped from the query: %q", enricher.webCalls[0])
	}
	if !strings.Contains(got, "Search results for") {
		t.Fatalf("enriched message must carry search results: %q", got)
	}
}

func TestEnrich_PlacesTrigger(t *testing.T) {
	enricher := &fakeEnricher{}
	svc := newTestService(enricher)

	got := svc.enrich(context.Background(), "coworking spaces near me", nil)
	if len(enricher.placesCalls) != 1 {
		t.Fatalf("expected one places lookup, got %d", len(enricher.placesCalls))
	}
	if !strings.Contains(got, "Places found for") {
		t.Fatalf("enriched message must carry places: %q", got)
	}
}

func TestEnrich_NoTriggerNoCalls(t *testing.T) {
	enricher := &fakeEnricher{}
	svc := newTestService(enricher)

	content := "просто поговорим о найме"
	if got := svc.enrich(context.Background(), content, nil); got != content {
		t.Fatalf("message without triggers must pass through unchanged: %q", got)
	}
	if len(enricher.webCalls)+len(enricher.placesCalls) != 0 {
		t.Fatalf("no enrichment calls expected")
	}
}

func TestEnrich_Attachments(t *testing.T) {
	svc := newTestService(nil)

	got := svc.enrich(context.Background(), "посмотри файл", []session.Attachment{
		{Name: "resume.pdf", Type: "application/pdf", Size: 1024},
	})
	if !strings.Contains(got, "Files uploaded:") || !strings.Contains(got, "resume.pdf (application/pdf)") {
		t.Fatalf("attachment block missing: %q", got)
	}
}
