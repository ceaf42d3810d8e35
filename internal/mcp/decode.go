package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/styleatelier/atelier/internal/errors"
)

// decode round-trips the request arguments through JSON into T, so tool
// inputs get the same field tags and types as the ops structs.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, errors.NewInvalidRequest(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, errors.NewInvalidRequest(fmt.Sprintf("invalid arguments: %v", err))
	}
	return out, nil
}
