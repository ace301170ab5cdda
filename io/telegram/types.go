package telegram

import "encoding/json"

// ParseModeMarkdown selects Telegram's legacy Markdown entity parser
const ParseModeMarkdown = "Markdown"

// SendMessageRequest is the sendMessage body
type SendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// APIResponse is the envelope every Bot API method answers with
type APIResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters carries hints on failed requests
type ResponseParameters struct {
	RetryAfter      int   `json:"retry_after,omitempty"`
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
}

// Message is the subset of a sent message the relay logs
type Message struct {
	MessageID int64 `json:"message_id"`
	Date      int64 `json:"date"`
}
