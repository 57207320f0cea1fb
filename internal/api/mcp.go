// internal/api/mcp.go
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameUPSStatus = "ups_status"

// NewMCPServer exposes the unit outcomes as MCP tools.
func NewMCPServer(reg Registry, version string) *server.MCPServer {
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"ups-replicator",
		version,
		server.WithToolCapabilities(false),
	)
	tool, handler := upsStatus(reg)
	s.AddTool(tool, handler)
	return s
}

// upsStatus returns the latest cached outcome of one or all units.
// It never triggers a poll.
func upsStatus(reg Registry) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool(toolNameUPSStatus,
		mcp.WithDescription("Latest UPS readings (voltages, load, frequency, temperature, battery level) per configured unit."),
		mcp.WithString("unit", mcp.Description("Unit id. Omit for all units.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var views []OutcomeView

		if id := req.GetString("unit", ""); id != "" {
			u, ok := reg.Unit(id)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("unknown unit %q", id)), nil
			}
			views = append(views, ViewOf(u, u.Current()))
		} else {
			for _, u := range reg.Units() {
				views = append(views, ViewOf(u, u.Current()))
			}
		}

		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	return tool, handler
}
