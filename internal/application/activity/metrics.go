package activity

import (
	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/pkg/metrics"
)

func observeRecovery(strategy string) {
	metrics.ActivityRecoveryTotal.WithLabelValues(strategy).Inc()
}

func observeFailure(stage Stage) {
	metrics.ActivityPipelineFailuresTotal.WithLabelValues(string(stage)).Inc()
}

func observeClamp(field string) {
	metrics.ActivityScoringClampedTotal.WithLabelValues(field).Inc()
}

func observeWarnings(t entity.ActivityType, n int) {
	if n == 0 {
		return
	}
	label := string(t)
	if !t.Known() {
		label = "unknown"
	}
	metrics.ActivityContentWarningsTotal.WithLabelValues(label).Add(float64(n))
}
