package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BuildTarget identifies the output platform of a completed build.
type BuildTarget string

const (
	TargetUWP     BuildTarget = "uwp"
	TargetIOS     BuildTarget = "ios"
	TargetAndroid BuildTarget = "android"
	TargetOther   BuildTarget = "other"
)

// ParseBuildTarget maps host platform identifiers to a BuildTarget.
// Unrecognized identifiers map to TargetOther.
func ParseBuildTarget(s string) BuildTarget {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uwp", "wsa", "wsaplayer", "metro":
		return TargetUWP
	case "ios", "iphone":
		return TargetIOS
	case "android":
		return TargetAndroid
	default:
		return TargetOther
	}
}

// BuildOutput is produced once per build and consumed by one Run.
type BuildOutput struct {
	Target     BuildTarget
	OutputPath string
}

// NewBuildOutput resolves outputPath to an absolute path.
func NewBuildOutput(target, outputPath string) (BuildOutput, error) {
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return BuildOutput{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	return BuildOutput{Target: ParseBuildTarget(target), OutputPath: abs}, nil
}
