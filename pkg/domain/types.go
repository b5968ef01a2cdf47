package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single immutable entry in the chat log.
// Image is set only on user messages that originated from an image upload
// and holds the serving path of the stored asset.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// Session is the single persisted chat state: the ordered message log plus
// the most recent extraction result and the asset it came from.
// LastExtractedData stays nil until an extraction has succeeded since the
// last reset; follow-up questions are only valid while it is set.
type Session struct {
	Messages          []Message `json:"messages"`
	LastExtractedData *string   `json:"last_extracted_data"`
	LastImageID       *string   `json:"last_image_id"`
}

// NewSession returns an empty session with a non-nil message slice so the
// persisted record always carries a JSON array.
func NewSession() Session {
	return Session{Messages: []Message{}}
}

// HasExtraction reports whether a follow-up question can be answered.
func (s Session) HasExtraction() bool {
	return s.LastExtractedData != nil
}

// Append returns the session with extra messages added to the log.
func (s Session) Append(msgs ...Message) Session {
	s.Messages = append(s.Messages, msgs...)
	return s
}
