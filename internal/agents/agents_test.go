package agents

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	for _, id := range []string{"ceo", "hunarbot", "buzzbot"} {
		agent, ok := Get(id)
		if !ok {
			t.Fatalf("agent %q must exist", id)
		}
		if agent.ID != id {
			t.Fatalf("agent %q has id %q", id, agent.ID)
		}
		if agent.SystemPrompt == "" || agent.VoiceID == "" {
			t.Fatalf("agent %q is missing prompt or voice", id)
		}
	}

	if _, ok := Get("nosuch"); ok {
		t.Fatalf("unknown agent must not resolve")
	}
}

func TestGetOrDefault(t *testing.T) {
	if got := GetOrDefault("nosuch"); got.ID != DefaultAgentID {
		t.Fatalf("expected fallback to %q, got %q", DefaultAgentID, got.ID)
	}
	if got := GetOrDefault("buzzbot"); got.ID != "buzzbot" {
		t.Fatalf("expected buzzbot, got %q", got.ID)
	}
}

func TestSystemPromptsAreDistinct(t *testing.T) {
	seen := make(map[string]string)
	for _, agent := range List() {
		for id, prompt := range seen {
			if prompt == agent.SystemPrompt {
				t.Fatalf("agents %q and %q share a system prompt", id, agent.ID)
			}
		}
		seen[agent.ID] = agent.SystemPrompt
	}
}

func TestWelcomeText(t *testing.T) {
	agent, _ := Get("hunarbot")
	text := agent.WelcomeText()
	if !strings.Contains(text, "HunarBot") {
		t.Fatalf("welcome must mention the agent name: %q", text)
	}
	if !strings.Contains(text, "talent acquisition") {
		t.Fatalf("welcome must list lowercased specialties: %q", text)
	}
}
