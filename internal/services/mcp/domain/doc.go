// Package domain defines the MCP tool and resource surface for meeting
// coordination: input/output schemas, tool definitions, and handlers that
// run agenda commands through the meeting facade.
package domain
