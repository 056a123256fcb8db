package orchestrator

import "time"

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeAbandoned means the thread was deleted while generating.
	OutcomeAbandoned Outcome = "abandoned"
)

// Observer receives generation lifecycle callbacks for metrics and events.
// Implementations must not block.
type Observer interface {
	GenerationStarted(job Job)
	DeltaPersisted(job Job)
	GenerationFinished(job Job, outcome Outcome, elapsed time.Duration, outputTokens int)
}

// Observers fans callbacks out to several observers.
type Observers []Observer

func (o Observers) GenerationStarted(job Job) {
	for _, obs := range o {
		obs.GenerationStarted(job)
	}
}

func (o Observers) DeltaPersisted(job Job) {
	for _, obs := range o {
		obs.DeltaPersisted(job)
	}
}

func (o Observers) GenerationFinished(job Job, outcome Outcome, elapsed time.Duration, outputTokens int) {
	for _, obs := range o {
		obs.GenerationFinished(job, outcome, elapsed, outputTokens)
	}
}
