package deepgram

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/miralabs/mira-core/core/texttospeech/deepgram"

var logger = otelslog.NewLogger(scopeName)
