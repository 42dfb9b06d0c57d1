package service

// Keys and tool names of the built-in services
const (
	FetchKey        = "fetch"
	FetchTool       = "fetch"
	DeepWikiKey     = "deepwiki"
	DeepWikiTool    = "deepwiki_fetch"
	DeepWikiHost    = "deepwiki.org"
	DefaultWikiMode = "aggregate"
)

// BuiltinSpecs returns the service definitions used when no configuration
// overrides them
func BuiltinSpecs() []Spec {
	return []Spec{
		{
			Key:     FetchKey,
			Name:    "Fetch MCP",
			URL:     "https://mcp.api-inference.modelscope.net/6ec508e067dc41/sse",
			Enabled: true,
			Tools: map[string]ToolSchema{
				FetchTool: {
					"url":         ArgString,
					"max_length":  ArgInteger,
					"start_index": ArgInteger,
					"raw":         ArgBoolean,
				},
			},
		},
		{
			Key:     DeepWikiKey,
			Name:    "DeepWiki MCP",
			URL:     "https://mcp.api-inference.modelscope.net/d4ed08072d2846/sse",
			Enabled: true,
			Tools: map[string]ToolSchema{
				DeepWikiTool: {
					"url":      ArgString,
					"mode":     ArgString,
					"maxDepth": ArgInteger,
				},
			},
		},
	}
}
