package mcpserver

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/patch"
	"github.com/moasq/appcenter-postbuild/internal/service"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

type handlers struct {
	svc *service.Service
}

type textOutput struct {
	Message string `json:"message"`
}

// runPostbuildInput is the input for the run_postbuild tool.
type runPostbuildInput struct {
	Target     string `json:"target" jsonschema:"Build target: uwp, ios or android"`
	OutputPath string `json:"output_path" jsonschema:"Absolute path of the build output directory"`
}

type runPostbuildOutput struct {
	Entries  []terminal.Entry `json:"entries"`
	Warnings int              `json:"warnings"`
	Errors   int              `json:"errors"`
}

func (h *handlers) runPostbuild(ctx context.Context, req *mcp.CallToolRequest, input runPostbuildInput) (*mcp.CallToolResult, runPostbuildOutput, error) {
	if strings.TrimSpace(input.OutputPath) == "" {
		return nil, runPostbuildOutput{}, fmt.Errorf("output_path is required")
	}
	rec := &terminal.Recorder{}
	// Subprocess output would corrupt the stdio transport.
	if err := h.svc.Run(ctx, input.Target, input.OutputPath, rec, io.Discard); err != nil {
		return nil, runPostbuildOutput{}, err
	}
	return nil, runPostbuildOutput{
		Entries:  rec.Entries(),
		Warnings: rec.Count(terminal.LevelWarning),
		Errors:   rec.Count(terminal.LevelError),
	}, nil
}

// ensureCapabilityInput is the input for the ensure_capability tool.
type ensureCapabilityInput struct {
	OutputPath string `json:"output_path" jsonschema:"UWP build output directory searched for Package.appxmanifest"`
	Capability string `json:"capability,omitempty" jsonschema:"Capability name, defaults to internetClient"`
}

func (h *handlers) ensureCapability(ctx context.Context, req *mcp.CallToolRequest, input ensureCapabilityInput) (*mcp.CallToolResult, textOutput, error) {
	name := input.Capability
	if name == "" {
		name = patch.InternetClient
	}
	if err := patch.EnsureCapability(input.OutputPath, name); err != nil {
		return nil, textOutput{}, err
	}
	return nil, textOutput{Message: fmt.Sprintf("Capability %s is declared.", name)}, nil
}

// upsertDependencyInput is the input for the upsert_dependency tool.
type upsertDependencyInput struct {
	ManifestPath string `json:"manifest_path" jsonschema:"Path of the project.json file"`
	PackageID    string `json:"package_id" jsonschema:"NuGet package id e.g. Newtonsoft.Json"`
	Version      string `json:"version" jsonschema:"Version string e.g. 10.0.3"`
}

func (h *handlers) upsertDependency(ctx context.Context, req *mcp.CallToolRequest, input upsertDependencyInput) (*mcp.CallToolResult, textOutput, error) {
	if input.PackageID == "" || input.Version == "" {
		return nil, textOutput{}, fmt.Errorf("package_id and version are required")
	}
	changed, err := patch.MergeDependencies(filepath.Clean(input.ManifestPath), []patch.Dependency{
		{PackageID: input.PackageID, Version: input.Version},
	})
	if err != nil {
		return nil, textOutput{}, err
	}
	if !changed {
		return nil, textOutput{Message: fmt.Sprintf("%s %s already present.", input.PackageID, input.Version)}, nil
	}
	return nil, textOutput{Message: fmt.Sprintf("Set %s to %s.", input.PackageID, input.Version)}, nil
}

type getFeatureFlagsInput struct{}

type featureFlagsOutput struct {
	SettingsPath     string `json:"settings_path"`
	UsePush          bool   `json:"use_push"`
	UseDistribute    bool   `json:"use_distribute"`
	PushEnabled      bool   `json:"push_enabled"`
	DistributeEnable bool   `json:"distribute_enabled"`
	IOSAppSecret     string `json:"ios_app_secret"`
	ProductName      string `json:"product_name"`
	TileShortName    string `json:"tile_short_name"`
	ApplicationID    string `json:"application_id"`
	ScriptingBackend string `json:"scripting_backend"`
	UWPBuildType     string `json:"uwp_build_type"`
	SDKRoot          string `json:"sdk_root"`
	ToolchainPath    string `json:"toolchain_path"`
	RestoreTimeout   string `json:"restore_timeout"`
}

func (h *handlers) getFeatureFlags(ctx context.Context, req *mcp.CallToolRequest, input getFeatureFlagsInput) (*mcp.CallToolResult, featureFlagsOutput, error) {
	flags, err := h.svc.Flags()
	if err != nil {
		return nil, featureFlagsOutput{}, err
	}
	return nil, featureFlagsOutput{
		SettingsPath:     h.svc.SettingsPath(),
		UsePush:          flags.UsePush,
		UseDistribute:    flags.UseDistribute,
		PushEnabled:      flags.PushEnabled(),
		DistributeEnable: flags.DistributeEnabled(),
		IOSAppSecret:     config.MaskSecret(flags.IOSAppSecret),
		ProductName:      flags.ProductName,
		TileShortName:    flags.TileShortName,
		ApplicationID:    flags.ApplicationID,
		ScriptingBackend: string(flags.ScriptingBackend),
		UWPBuildType:     string(flags.UIFramework),
		SDKRoot:          flags.SDKRoot,
		ToolchainPath:    flags.ToolchainPath,
		RestoreTimeout:   flags.RestoreTimeout.String(),
	}, nil
}

