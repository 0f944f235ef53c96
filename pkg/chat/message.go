package chat

import "encoding/json"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a conversation. Each variant renders itself to the
// wire format through its own MarshalJSON, so the request's message array can
// carry heterogeneous content shapes without a fixed schema.
type Message interface {
	json.Marshaler

	// MessageRole returns the fixed role of this turn.
	MessageRole() Role
}

// TextMessage is the base variant: a role with plain text content.
type TextMessage struct {
	Role    Role
	Content string

	// Name optionally distinguishes participants sharing a role.
	Name string
}

// MessageRole returns the message role.
func (m TextMessage) MessageRole() Role { return m.Role }

// MarshalJSON renders the message in the Chat Completions wire format.
func (m TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Role    Role   `json:"role"`
		Content string `json:"content"`
		Name    string `json:"name,omitempty"`
	}{m.Role, m.Content, m.Name})
}

// System creates a system-role text message.
func System(content string) TextMessage {
	return TextMessage{Role: RoleSystem, Content: content}
}

// User creates a user-role text message.
func User(content string) TextMessage {
	return TextMessage{Role: RoleUser, Content: content}
}

// Assistant creates an assistant-role text message, typically echoing a
// previous completion back into the conversation history.
func Assistant(content string) TextMessage {
	return TextMessage{Role: RoleAssistant, Content: content}
}

// ToolMessage carries a tool invocation result back to the model. Its role
// is always "tool".
type ToolMessage struct {
	Content    string
	ToolCallID string
}

// MessageRole returns RoleTool.
func (m ToolMessage) MessageRole() Role { return RoleTool }

// MarshalJSON renders the tool result in the Chat Completions wire format.
func (m ToolMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Role       Role   `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	}{RoleTool, m.Content, m.ToolCallID})
}

// ContentPart is one element of a multimodal content array.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by URL or data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart creates an image content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

// PartsMessage is a message whose content is a multimodal content-part array
// rather than a plain string.
type PartsMessage struct {
	Role  Role
	Parts []ContentPart
}

// MessageRole returns the message role.
func (m PartsMessage) MessageRole() Role { return m.Role }

// MarshalJSON renders the message with its content as a JSON array of parts.
func (m PartsMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Role    Role          `json:"role"`
		Content []ContentPart `json:"content"`
	}{m.Role, m.Parts})
}
