package posting

import (
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
)

// Recorder receives ingestion telemetry; internal/metrics provides the Prometheus one
type Recorder interface {
	PageFetched(source domain.Source, outcome string)
	RateLimited(source domain.Source, retried bool)
	PostingAdmitted(source domain.Source, isNew bool)
	SourceFinished(source domain.Source, reason string, inserted int)
	RunFinished(status domain.TaskStatus, inserted int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) PageFetched(domain.Source, string)                 {}
func (nopRecorder) RateLimited(domain.Source, bool)                   {}
func (nopRecorder) PostingAdmitted(domain.Source, bool)               {}
func (nopRecorder) SourceFinished(domain.Source, string, int)         {}
func (nopRecorder) RunFinished(domain.TaskStatus, int, time.Duration) {}

// NopRecorder discards telemetry
func NopRecorder() Recorder { return nopRecorder{} }
