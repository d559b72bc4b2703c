package platform

import (
	"github.com/moasq/appcenter-postbuild/internal/editors"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

// NewDefault returns an orchestrator with the UWP, iOS and Android
// strategies registered. restore runs the NuGet restore and may carry a
// launcher; hooks runs Android hook commands as given. androidHook may
// be nil.
func NewDefault(log terminal.Logger, restore, hooks CommandRunner, ios IOSCollaborators, androidHook editors.AndroidHook) *Orchestrator {
	o := NewOrchestrator(log)
	o.Register(TargetUWP, &UWP{Runner: restore})
	o.Register(TargetIOS, &IOS{Editors: ios})
	o.Register(TargetAndroid, &Android{Hook: androidHook, Runner: hooks})
	return o
}
