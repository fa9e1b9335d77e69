package modes

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/oralprep/interview-core/core/modes"

var logger = otelslog.NewLogger(scopeName)
