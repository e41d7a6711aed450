package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/acj/remoteprocess/pkg/proc"
)

// maxMCPRead caps a single read_memory request.
const maxMCPRead = 1 << 20

// NewMCPServer builds an MCP server exposing the introspection layer as
// tools, for agents that speak MCP over stdio.
func NewMCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer("remoteprocess", version,
		server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("process_info",
		mcp.WithDescription("Get the executable path and raw command line of a process"),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("target process id")),
	), handleProcessInfo)

	s.AddTool(mcp.NewTool("process_threads",
		mcp.WithDescription("List the threads of a process with an active/idle flag"),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("target process id")),
	), handleProcessThreads)

	s.AddTool(mcp.NewTool("process_tree",
		mcp.WithDescription("List the (pid, ppid) pairs of all descendants of a process"),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("root process id")),
	), handleProcessTree)

	s.AddTool(mcp.NewTool("read_memory",
		mcp.WithDescription("Hex dump a region of a process's memory"),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("target process id")),
		mcp.WithString("addr", mcp.Required(), mcp.Description("start address, e.g. 0x7f0000001000")),
		mcp.WithNumber("size", mcp.Required(), mcp.Description("bytes to read")),
	), handleReadMemory)

	return s
}

// ServeStdio runs the MCP server on stdin/stdout until EOF.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func openTarget(request mcp.CallToolRequest) (*proc.Process, error) {
	pid, err := request.RequireInt("pid")
	if err != nil {
		return nil, err
	}
	return proc.New(pid)
}

func handleProcessInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := openTarget(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer p.Close()

	info, err := collectInfo(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func handleProcessThreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := openTarget(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer p.Close()

	threads, err := collectThreads(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(threads)
}

func handleProcessTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := openTarget(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer p.Close()

	edges, err := p.ChildProcesses()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(edges)
}

func handleReadMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addrStr, err := request.RequireString("addr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	addr, err := strconv.ParseUint(addrStr, 0, 64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid addr: %v", err)), nil
	}
	size, err := request.RequireInt("size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if size <= 0 || size > maxMCPRead {
		return mcp.NewToolResultError(fmt.Sprintf("size must be in 1..%d", maxMCPRead)), nil
	}

	p, err := openTarget(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer p.Close()

	buf := make([]byte, size)
	if _, err := p.ReadAt(buf, int64(addr)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(hex.Dump(buf)), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
