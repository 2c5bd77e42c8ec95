package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/miralabs/mira-core/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	interruptionCounter, _ = meter.Int64Counter("orchestration.turn.interruptions",
		metric.WithDescription("Turns cancelled mid-response, either by barge-in or an explicit cancel"),
	)
	linkErrorCounter, _ = meter.Int64Counter("orchestration.link.errors",
		metric.WithDescription("Errors reported by streaming service links"),
	)
	timeToFirstAudio, _ = meter.Float64Histogram("orchestration.turn.time_to_first_audio",
		metric.WithDescription("Seconds from turn start to the first audio chunk reaching output"),
		metric.WithUnit("s"),
	)
)
