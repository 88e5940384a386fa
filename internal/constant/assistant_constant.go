package constant

// AssistantSystemPrompt frames every completion call.
const AssistantSystemPrompt = "You are a helpful AI personal assistant. Be concise and friendly."

// Completion defaults.
const (
	AssistantTemperature = 0.7
	AssistantMaxTokens   = 500
)

// Fallback reply when the provider returns an empty candidate.
const AssistantEmptyReply = "Sorry, I could not process your request."

// Diagnostic stored as a system message when a send attempt fails.
const SendFailureMessage = "Sorry, I encountered an error. Please check your API configuration and try again."

// Transient notification shown alongside the system message.
const SendFailureNotification = "Failed to send message. Please check your API key and try again."
