package constant

const (
	// Written into the pending assistant message when a generation fails.
	GenerationErrorMessage = "An error occurred while generating the response. Please try again."

	FallbackThreadTitle = "New Thread"

	DefaultMode  = "dark"
	DefaultTheme = "default"
	DefaultModel = "mistral-small-latest"
)

var DefaultPinnedModels = []string{"magistral-small-latest", "mistral-small-latest"}

var Modes = []string{"light", "dark"}

var Themes = []string{
	"default",
	"t3-chat",
	"claymorphism",
	"claude",
	"graphite",
	"amethyst-haze",
	"vercel",
}

// NATS event types
const (
	EventUserCreated         = "USER_CREATED"
	EventUserDeleted         = "USER_DELETED"
	EventThreadCreated       = "THREAD_CREATED"
	EventThreadDeleted       = "THREAD_DELETED"
	EventMessageSent         = "MESSAGE_SENT"
	EventGenerationCompleted = "GENERATION_COMPLETED"
	EventGenerationFailed    = "GENERATION_FAILED"
)
