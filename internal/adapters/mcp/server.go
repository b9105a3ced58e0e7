package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/statetree/internal/logging"
	"github.com/aretw0/statetree/pkg/catalog"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AreasURI is the resource listing the served areas.
const AreasURI = "statetree://areas"

// Backend is what the MCP server needs from the engine.
type Backend interface {
	Areas() []catalog.Area
	Sessions(area string) (*session.Manager, error)
}

// AreaInfo describes one area to agents.
type AreaInfo struct {
	Name        string   `json:"name" jsonschema_description:"Area name, used as the area argument of other tools"`
	Description string   `json:"description,omitempty"`
	Slots       []string `json:"slots" jsonschema_description:"Slot keys of the area's tree"`
	Flags       []string `json:"flags" jsonschema_description:"Scalar flag keys of the area's tree"`
}

// AreasResponse is the result of list_areas.
type AreasResponse struct {
	Areas []AreaInfo `json:"areas"`
}

// TreeResponse carries a session tree as plain JSON.
type TreeResponse struct {
	Area    string         `json:"area"`
	ID      string         `json:"id"`
	Created bool           `json:"created,omitempty" jsonschema_description:"True when create_session made a new session"`
	Tree    map[string]any `json:"tree" jsonschema_description:"Revision, slots (data, status, error) and flags"`
}

// DispatchResponse is the result of dispatch.
type DispatchResponse struct {
	Area string           `json:"area"`
	ID   string           `json:"id"`
	Tree map[string]any   `json:"tree"`
	Diff *domain.TreeDiff `json:"diff,omitempty" jsonschema_description:"Slots and flags changed by the actions; absent when nothing changed"`
}

// SessionArgs address one session.
type SessionArgs struct {
	Area string `json:"area"`
	ID   string `json:"id"`
}

// DispatchArgs carry one action (kind, payload) or a batch (actions).
type DispatchArgs struct {
	Area    string          `json:"area"`
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload any             `json:"payload"`
	Actions []domain.Action `json:"actions"`
}

func (a DispatchArgs) actions() []domain.Action {
	if len(a.Actions) > 0 {
		return a.Actions
	}
	if a.Kind == "" {
		return nil
	}
	return []domain.Action{{Kind: a.Kind, Payload: a.Payload}}
}

// Server exposes the sessions of every area as MCP tools.
type Server struct {
	backend   Backend
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(backend Backend, version string, opts ...Option) *Server {
	s := &Server{
		backend:   backend,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("statetree-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout until the input closes or a signal arrives.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// SSEHandler returns the SSE transport (/sse and /message) for baseURL.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	return mux
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_areas",
		mcp.WithDescription("List the areas this server tracks, with their slot and flag keys."),
		mcp.WithOutputSchema[AreasResponse](),
	), mcp.NewStructuredToolHandler(s.handleListAreas))

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a session holding the initial tree of an area. Returns the existing tree if the session already exists."),
		mcp.WithString("area", mcp.Required(), mcp.Description("Area name")),
		mcp.WithString("id", mcp.Description("Session ID (optional, generated when omitted)")),
		mcp.WithOutputSchema[TreeResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Apply actions to a session tree. Response actions carry a payload {status, data, error}."),
		mcp.WithString("area", mcp.Required(), mcp.Description("Area name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("kind", mcp.Description("Action kind, for a single action")),
		mcp.WithObject("payload", mcp.Description("Action payload, for a single action")),
		mcp.WithArray("actions", mcp.Description("Batch of {kind, payload} actions applied in order")),
		mcp.WithOutputSchema[DispatchResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Read the current tree of a session."),
		mcp.WithString("area", mcp.Required(), mcp.Description("Area name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TreeResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetTree))
}

func (s *Server) handleListAreas(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (AreasResponse, error) {
	return AreasResponse{Areas: s.areaInfos()}, nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (TreeResponse, error) {
	m, err := s.backend.Sessions(args.Area)
	if err != nil {
		return TreeResponse{}, err
	}
	if args.ID == "" {
		args.ID = uuid.NewString()
	}

	tree, created, err := m.LoadOrInit(ctx, args.ID)
	if err != nil {
		return TreeResponse{}, fmt.Errorf("create session failed: %w", err)
	}
	s.logger.Debug("MCP: Session ready", "area", args.Area, "session_id", args.ID, "created", created)
	return TreeResponse{Area: args.Area, ID: args.ID, Created: created, Tree: tree.Snapshot()}, nil
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args DispatchArgs) (DispatchResponse, error) {
	actions := args.actions()
	if len(actions) == 0 {
		return DispatchResponse{}, errors.New("no action given: set kind or actions")
	}
	m, err := s.backend.Sessions(args.Area)
	if err != nil {
		return DispatchResponse{}, err
	}

	res, err := m.Dispatch(ctx, args.ID, actions...)
	if err != nil {
		s.logger.Warn("MCP Dispatch: Failed", "area", args.Area, "session_id", args.ID, "error", err)
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}
	return DispatchResponse{Area: args.Area, ID: args.ID, Tree: res.Tree.Snapshot(), Diff: res.Diff}, nil
}

func (s *Server) handleGetTree(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (TreeResponse, error) {
	m, err := s.backend.Sessions(args.Area)
	if err != nil {
		return TreeResponse{}, err
	}
	tree, err := m.Load(ctx, args.ID)
	if err != nil {
		return TreeResponse{}, fmt.Errorf("load session failed: %w", err)
	}
	return TreeResponse{Area: args.Area, ID: args.ID, Tree: tree.Snapshot()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(AreasURI, "Served Areas",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(AreasResponse{Areas: s.areaInfos()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode areas: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      AreasURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) areaInfos() []AreaInfo {
	areas := s.backend.Areas()
	out := make([]AreaInfo, 0, len(areas))
	for _, a := range areas {
		tree := a.Schema.NewTree()
		out = append(out, AreaInfo{
			Name:        a.Name,
			Description: a.Description,
			Slots:       tree.SlotKeys(),
			Flags:       tree.FlagKeys(),
		})
	}
	return out
}
