package logger

// Intention represents the semantic intent of a log line, orthogonal to level.
// Console output renders it as a short icon; file logs keep it as a
// structured attribute.
type Intention string

const (
	IntentionTool    Intention = "tool"
	IntentionRemote  Intention = "remote"
	IntentionSearch  Intention = "search"
	IntentionSession Intention = "session"
	IntentionStatus  Intention = "status"
	IntentionWarning Intention = "warning" // no icon mapping; level handles emphasis
	IntentionError   Intention = "error"   // no icon mapping; level handles emphasis
	IntentionSuccess Intention = "success"
	IntentionDebug   Intention = "debug"
	IntentionConfig  Intention = "config"
)

// iconFor returns a short emoji string for console output for the intention.
func iconFor(i Intention) string {
	switch i {
	case IntentionTool:
		return "🔧"
	case IntentionRemote:
		return "🌐"
	case IntentionSearch:
		return "🔎"
	case IntentionSession:
		return "🗂️"
	case IntentionStatus:
		return "ℹ️"
	case IntentionSuccess:
		return "✅"
	case IntentionDebug:
		return "🛠️"
	case IntentionConfig:
		return "⚙️"
	default:
		return "➤"
	}
}
