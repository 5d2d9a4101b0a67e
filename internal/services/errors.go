package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classify failures across stages, collaborators, and the
// sync engine. Boundary code uses errors.Is against these to pick response
// codes; background code stores the rendered message on the record instead of
// propagating.
var (
	// ErrNotFound marks a missing recording or referenced artifact.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a precondition violation, such as merging with a
	// missing source track or re-running a stage that is mid-flight.
	ErrConflict = errors.New("conflict")
	// ErrUpstream marks a collaborator that returned an error or malformed
	// output.
	ErrUpstream = errors.New("upstream failure")
	// ErrTimeout marks a collaborator or remote call that exceeded its bound.
	ErrTimeout = errors.New("timeout")
	// ErrUnreachable marks a remote Core that failed the liveness probe.
	ErrUnreachable = errors.New("core unreachable")
	// ErrDeliveryRejected marks a remote Core that kept responding with a
	// non-success status until the retry budget ran out.
	ErrDeliveryRejected = errors.New("delivery rejected")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
