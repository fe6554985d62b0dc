// CLAUDE:SUMMARY MCP tools: recherche_research, recherche_history, recherche_search, recherche_save.
package recherche

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/recherche/kit"
)

// RegisterMCP registers the research tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerResearch(srv)
	svc.registerHistory(srv)
	svc.registerSearch(srv)
	svc.registerSave(srv)
}

func (svc *Service) logged(tool *mcp.Tool, ep kit.Endpoint) kit.Endpoint {
	return kit.Logging(svc.logger, tool.Name)(ep)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (svc *Service) registerResearch(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "recherche_research",
		Description: "Search the web for a query, fetch the top results and optionally summarize them",
		InputSchema: inputSchema(map[string]any{
			"query":       map[string]any{"type": "string", "description": "Research query"},
			"depth":       map[string]any{"type": "string", "enum": []string{"quick", "standard", "deep"}, "description": "quick: search only, standard: + fetch, deep: + synthesis"},
			"max_sources": map[string]any{"type": "integer", "description": "Sources to fetch (default 5)"},
			"news":        map[string]any{"type": "boolean", "description": "Search news instead of the web"},
			"page":        map[string]any{"type": "integer", "description": "Zero-based result page"},
			"per_page":    map[string]any{"type": "integer", "description": "Results per page (default max_sources)"},
		}, []string{"query"}),
	}

	kit.RegisterMCPTool(srv, tool, svc.researchEndpoint(), kit.DecodeJSON(func() any { return &ResearchRequest{} }))
}

func (svc *Service) registerHistory(srv *mcp.Server) {
	type req struct {
		Limit int `json:"limit"`
	}

	tool := &mcp.Tool{
		Name:        "recherche_history",
		Description: "List past research sessions, newest first",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max sessions (default 20)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return svc.Recent(ctx, r.(*req).Limit)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, svc.logged(tool, endpoint), decode)
}

func (svc *Service) registerSearch(srv *mcp.Server) {
	type req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}

	tool := &mcp.Tool{
		Name:        "recherche_search",
		Description: "Full-text search over archived source texts",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms"},
			"limit": map[string]any{"type": "integer", "description": "Max hits (default 20)"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.SearchArchive(ctx, p.Query, p.Limit)
	}

	kit.RegisterMCPTool(srv, tool, svc.logged(tool, endpoint), kit.DecodeJSON(func() any { return &req{} }))
}

func (svc *Service) registerSave(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "recherche_save",
		Description: "Save the session history to a timestamped JSON file",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		path, err := svc.SaveResearch("")
		if err != nil {
			return nil, err
		}
		return map[string]any{"path": path, "sessions": len(svc.History())}, nil
	}

	kit.RegisterMCPTool(srv, tool, svc.logged(tool, endpoint), kit.DecodeJSON(func() any { return &struct{}{} }))
}
