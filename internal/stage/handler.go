package stage

import (
	"context"

	"solarrec/internal/recording"
)

// Result carries what a stage produced. Artifact is the path of the file the
// stage wrote, empty when the stage produces no file of its own.
type Result struct {
	Artifact string
}

// Handler describes the contract the pipeline needs from each derivation
// stage.
type Handler interface {
	Stage() recording.Stage
	Execute(context.Context, *recording.Recording) (Result, error)
	HealthCheck(context.Context) Health
}
