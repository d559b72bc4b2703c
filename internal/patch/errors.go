// Package patch holds the idempotent, best-effort editors applied to a
// generated native project: source injection, manifest capabilities,
// dependency merging and the external restore process.
package patch

import "errors"

// TroubleshootingURL is included in errors that need manual follow-up.
const TroubleshootingURL = "https://docs.microsoft.com/en-us/appcenter/sdk/troubleshooting/unity"

var (
	// ErrNotFound is returned when an expected file or target is absent.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when more than one candidate exists where exactly one was required.
	ErrAmbiguous = errors.New("ambiguous target")
	// ErrPatternNotMatched is returned when an anchor pattern is absent from a source file.
	ErrPatternNotMatched = errors.New("injection anchor not found")
	// ErrSubprocess is returned when an external process fails to launch, exits non-zero or times out.
	ErrSubprocess = errors.New("subprocess failed")
	// ErrCollaboratorUnavailable is returned when an optional structured editor is not installed.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrUnsupportedEntry is returned when an existing dependency entry is not a plain string value.
	ErrUnsupportedEntry = errors.New("unsupported dependency entry")
)
