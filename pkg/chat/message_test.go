package chat

import (
	"encoding/json"
	"testing"
)

// decodedMessage is the generic decode target used to verify the wire shape
// of the polymorphic message variants.
type decodedMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	ToolCallID string          `json:"tool_call_id"`
}

func TestTextMessage_RoundTrip(t *testing.T) {
	req, err := NewRequest("gpt-4", []Message{
		System("You are helpful."),
		User("Hello"),
		Assistant("Hi! How can I help?"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var wire struct {
		Messages []decodedMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(wire.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(wire.Messages))
	}

	wantRoles := []string{"system", "user", "assistant"}
	wantContent := []string{"You are helpful.", "Hello", "Hi! How can I help?"}
	for i, msg := range wire.Messages {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d role = %q, want %q", i, msg.Role, wantRoles[i])
		}
		var content string
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			t.Errorf("message %d content is not a string: %s", i, msg.Content)
			continue
		}
		if content != wantContent[i] {
			t.Errorf("message %d content = %q, want %q", i, content, wantContent[i])
		}
	}
}

func TestToolMessage_RoundTrip(t *testing.T) {
	msg := ToolMessage{Content: `{"temp": 21}`, ToolCallID: "call_weather_1"}

	if msg.MessageRole() != RoleTool {
		t.Errorf("role = %q, want %q", msg.MessageRole(), RoleTool)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded decodedMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Role != "tool" {
		t.Errorf("role = %q, want %q", decoded.Role, "tool")
	}
	if decoded.ToolCallID != "call_weather_1" {
		t.Errorf("tool_call_id = %q, want %q", decoded.ToolCallID, "call_weather_1")
	}
}

func TestPartsMessage_RoundTrip(t *testing.T) {
	msg := PartsMessage{
		Role: RoleUser,
		Parts: []ContentPart{
			TextPart("What is in this image?"),
			ImagePart("https://example.com/cat.png"),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded decodedMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Role != "user" {
		t.Errorf("role = %q, want %q", decoded.Role, "user")
	}

	// Content must be an array of typed parts, not a string.
	var parts []ContentPart
	if err := json.Unmarshal(decoded.Content, &parts); err != nil {
		t.Fatalf("content is not a part array: %s", decoded.Content)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "What is in this image?" {
		t.Errorf("part 0 = %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "https://example.com/cat.png" {
		t.Errorf("part 1 = %+v", parts[1])
	}
}

func TestTextMessage_NameOmittedWhenEmpty(t *testing.T) {
	data, err := json.Marshal(User("hi"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"role":"user","content":"hi"}` {
		t.Errorf("unexpected wire form: %s", data)
	}
}
