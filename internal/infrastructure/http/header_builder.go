package httpinfra

// StreamHeaders are sent on every event-stream request
var StreamHeaders = map[string]string{
	"Accept":        "text/event-stream",
	"Cache-Control": "no-cache",
}

// JSONHeaders are sent on every envelope post
var JSONHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// MergeHeaders returns base overlaid with extra; neither input is modified
func MergeHeaders(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
