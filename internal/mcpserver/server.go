package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moasq/appcenter-postbuild/internal/service"
)

// Run starts the post-build MCP server over stdio.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, svc *service.Service, version string) error {
	return NewServer(svc, version).Run(ctx, &mcp.StdioTransport{})
}

// NewServer registers the post-build tools on a new MCP server.
func NewServer(svc *service.Service, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "appcenter-postbuild",
			Version: version,
		},
		nil,
	)
	h := &handlers{svc: svc}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_postbuild",
		Description: "Patch a completed UWP, iOS or Android build output for the App Center SDK. Idempotent: re-running on a patched output changes nothing. Returns the step transcript. Example: run_postbuild(target: \"ios\", output_path: \"/builds/ios\")",
	}, h.runPostbuild)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ensure_capability",
		Description: "Declare a capability (default internetClient) in the single Package.appxmanifest under a UWP output directory. No-op when already declared.",
	}, h.ensureCapability)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upsert_dependency",
		Description: "Insert or update one package in the dependencies block of a project.json file, keeping the rest of the file byte-identical.",
	}, h.upsertDependency)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_feature_flags",
		Description: "Show the resolved feature flags (settings file, .env and APPCENTER_* overrides). The iOS app secret is masked. Read-only.",
	}, h.getFeatureFlags)

	return server
}
