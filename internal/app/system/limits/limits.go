// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxChatBodySize bounds chat JSON requests. Message content itself is
	// capped well below this by the chat service.
	MaxChatBodySize = 64 << 10 // 64 KB

	// MaxHookBodySize bounds job hook requests, which may carry a full
	// crew list.
	MaxHookBodySize = 1 << 20 // 1 MB
)
