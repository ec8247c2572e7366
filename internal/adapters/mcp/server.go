// Package mcpadapter exposes sentiment analysis as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

const (
	serverName         = "review-sentiment"
	defaultHistorySize = 20
)

type Server struct {
	analyzer  ports.TextAnalyzer
	history   ports.HistoryReader
	dashboard ports.DashboardBuilder
	mcp       *server.MCPServer
}

func NewServer(version string, analyzer ports.TextAnalyzer, history ports.HistoryReader, dashboard ports.DashboardBuilder) *Server {
	s := &Server{
		analyzer:  analyzer,
		history:   history,
		dashboard: dashboard,
		mcp:       server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("analyze_sentiment",
		mcp.WithDescription("Classify the sentiment of a text as Positive, Negative or Neutral with a confidence score."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to classify, at most 5000 characters."),
		),
	), s.analyzeSentiment)

	s.mcp.AddTool(mcp.NewTool("sentiment_stats",
		mcp.WithDescription("Aggregate counts, sentiment shares and average confidence of every analysis so far."),
	), s.sentimentStats)

	s.mcp.AddTool(mcp.NewTool("sentiment_history",
		mcp.WithDescription("Most recent analyses with their predictions."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of entries to return (default %d).", defaultHistorySize)),
		),
	), s.sentimentHistory)

	return s
}

// ServeStdio blocks serving JSON-RPC on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) analyzeSentiment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return toolError(ctx, "analyze_sentiment", err), nil
	}
	return jsonResult(analysis)
}

func (s *Server) sentimentStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dashboard, err := s.dashboard.Build(ctx)
	if err != nil {
		return toolError(ctx, "sentiment_stats", err), nil
	}
	return jsonResult(dashboard)
}

func (s *Server) sentimentHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultHistorySize)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	entries, err := s.history.List(ctx)
	if err != nil {
		return toolError(ctx, "sentiment_history", err), nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return jsonResult(entries)
}

// toolError reports failures as tool results so the model sees the message
// instead of a protocol error.
func toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	slog.WarnContext(ctx, "mcp_tool_failed", "tool", tool, "error", err.Error())
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
