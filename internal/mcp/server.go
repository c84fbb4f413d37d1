// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the focal timer and journal as MCP tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focal-sh/focal/internal/core"
	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps focal services and exposes them as MCP tools.
type Server struct {
	server  *gomcp.Server
	timer   *core.Controller
	journal storage.JournalStore
}

// NewServer creates a new MCP server over the given timer controller and
// journal store.
func NewServer(timer *core.Controller, journal storage.JournalStore, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		timer:   timer,
		journal: journal,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "focal", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type timerStatusInput struct{}

type timerStatusOutput struct {
	Phase            string `json:"phase"`
	EndTime          string `json:"end_time,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
	DurationMinutes  int    `json:"duration_minutes,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
}

type startSessionInput struct {
	Minutes int `json:"minutes" jsonschema:"required,session length in minutes; one of 1, 25, 35, 45, 55"`
}

type startSessionOutput struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	EndTime   string `json:"end_time"`
}

type resetSessionInput struct{}

type resetSessionOutput struct {
	Message string `json:"message"`
}

type addNoteInput struct {
	Text string `json:"text" jsonschema:"required,the note body to append to the journal"`
}

type addNoteOutput struct {
	Message string `json:"message"`
}

type recentJournalInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return. Defaults to 10."`
}

type journalEntryOutput struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time"`
	Duration    int    `json:"duration,omitempty"`
	SummaryText string `json:"summary_text"`
}

type recentJournalOutput struct {
	Entries []journalEntryOutput `json:"entries"`
	Count   int                  `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "timer_status",
		Description: "Get the shared focus timer state: phase (start, running, end), remaining time, and session ID.",
	}, s.handleTimerStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "start_session",
		Description: "Start a focus session. The length must be one of the allowed durations: 1, 25, 35, 45, or 55 minutes.",
	}, s.handleStartSession)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reset_session",
		Description: "Reset the timer to the idle start phase, clearing the end time, duration, and session ID.",
	}, s.handleResetSession)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_note",
		Description: "Append a free-standing note entry to the session journal.",
	}, s.handleAddNote)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "recent_journal",
		Description: "List recent journal entries, most recent first.",
	}, s.handleRecentJournal)
}

// --- Tool handlers ---

func (s *Server) handleTimerStatus(_ context.Context, _ *gomcp.CallToolRequest, _ timerStatusInput) (*gomcp.CallToolResult, timerStatusOutput, error) {
	state, err := s.timer.Load()
	if err != nil {
		if errors.Is(err, core.ErrCorruptState) {
			return errorResult("timer state was corrupt and has been reset"), timerStatusOutput{Phase: string(models.PhaseStart)}, nil
		}
		return errorResult(fmt.Sprintf("loading timer state: %s", err)), timerStatusOutput{}, nil
	}

	out := timerStatusOutput{
		Phase:           string(state.Phase),
		DurationMinutes: state.Duration,
		SessionID:       state.SessionID,
	}
	if state.EndTime != nil {
		out.EndTime = state.EndTime.Format(time.RFC3339)
		if remaining := state.Remaining(time.Now()); remaining > 0 {
			out.RemainingSeconds = int(remaining.Seconds())
		}
	}
	return nil, out, nil
}

func (s *Server) handleStartSession(_ context.Context, _ *gomcp.CallToolRequest, input startSessionInput) (*gomcp.CallToolResult, startSessionOutput, error) {
	state, err := s.timer.Start(input.Minutes)
	if err != nil {
		return errorResult(fmt.Sprintf("starting session: %s", err)), startSessionOutput{}, nil
	}

	out := startSessionOutput{
		Message:   fmt.Sprintf("session of %d minutes started", input.Minutes),
		SessionID: state.SessionID,
		EndTime:   state.EndTime.Format(time.RFC3339),
	}
	return nil, out, nil
}

func (s *Server) handleResetSession(_ context.Context, _ *gomcp.CallToolRequest, _ resetSessionInput) (*gomcp.CallToolResult, resetSessionOutput, error) {
	if err := s.timer.Reset(); err != nil {
		return errorResult(fmt.Sprintf("resetting timer: %s", err)), resetSessionOutput{}, nil
	}
	return nil, resetSessionOutput{Message: "timer reset to start"}, nil
}

func (s *Server) handleAddNote(_ context.Context, _ *gomcp.CallToolRequest, input addNoteInput) (*gomcp.CallToolResult, addNoteOutput, error) {
	if input.Text == "" {
		return errorResult("text is required"), addNoteOutput{}, nil
	}
	if err := s.timer.AddNote(input.Text); err != nil {
		return errorResult(fmt.Sprintf("adding note: %s", err)), addNoteOutput{}, nil
	}
	return nil, addNoteOutput{Message: "note appended to journal"}, nil
}

func (s *Server) handleRecentJournal(_ context.Context, _ *gomcp.CallToolRequest, input recentJournalInput) (*gomcp.CallToolResult, recentJournalOutput, error) {
	entries, err := s.journal.ReadAll()
	if err != nil {
		if errors.Is(err, storage.ErrNotBound) {
			return errorResult("journal is not bound to a file yet; run 'focal journal bind' first"), recentJournalOutput{}, nil
		}
		return errorResult(fmt.Sprintf("reading journal: %s", err)), recentJournalOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit < len(entries) {
		entries = entries[:limit]
	}

	out := recentJournalOutput{
		Entries: make([]journalEntryOutput, len(entries)),
		Count:   len(entries),
	}
	for i, e := range entries {
		out.Entries[i] = journalEntryOutput{
			Type:        string(e.Type),
			SessionID:   e.SessionID,
			EndTime:     e.EndTime.Format(time.RFC3339),
			Duration:    e.Duration,
			SummaryText: e.SummaryText,
		}
		if e.StartTime != nil {
			out.Entries[i].StartTime = e.StartTime.Format(time.RFC3339)
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
