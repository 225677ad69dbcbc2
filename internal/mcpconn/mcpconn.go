package mcpconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/user/planstream/internal/pipeline"
	"github.com/user/planstream/internal/tools"
)

const (
	defaultTimeout   = 30 * time.Second
	maxToolListPages = 20
)

// Options configures the MCP connection. URL is required.
type Options struct {
	URL     string
	Token   string
	Timeout time.Duration
	// ClientName and ClientVersion are reported during initialization.
	ClientName    string
	ClientVersion string
}

// Dialer opens one MCP session per planning request.
type Dialer struct {
	opts Options
}

// NewDialer validates opts and fills in defaults.
func NewDialer(opts Options) (*Dialer, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("mcp url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ClientName == "" {
		opts.ClientName = "planstream"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "dev"
	}
	return &Dialer{opts: opts}, nil
}

type mcpClient interface {
	Start(ctx context.Context) error
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Connect opens and initializes a new MCP session.
func (d *Dialer) Connect(ctx context.Context) (pipeline.Session, error) {
	httpOpts := []transport.StreamableHTTPCOption{transport.WithHTTPTimeout(d.opts.Timeout)}
	if d.opts.Token != "" {
		httpOpts = append(httpOpts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + d.opts.Token,
		}))
	}
	c, err := client.NewStreamableHttpClient(d.opts.URL, httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}
	return open(ctx, c, d.opts)
}

func open(ctx context.Context, c mcpClient, opts Options) (*Session, error) {
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start mcp transport: %w", err)
	}
	var init mcp.InitializeRequest
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: opts.ClientName, Version: opts.ClientVersion}
	res, err := c.Initialize(ctx, init)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	slog.Debug("mcp session initialized", "server", res.ServerInfo.Name, "protocol", res.ProtocolVersion)
	return &Session{client: c}, nil
}

// Session wraps an initialized MCP client.
type Session struct {
	client mcpClient
}

// ListTools follows pagination cursors until the catalog is complete.
func (s *Session) ListTools(ctx context.Context) ([]tools.Descriptor, error) {
	var out []tools.Descriptor
	var req mcp.ListToolsRequest
	for page := 0; page < maxToolListPages; page++ {
		res, err := s.client.ListTools(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		for _, t := range res.Tools {
			out = append(out, tools.Descriptor{Name: t.Name, Description: t.Description})
		}
		if res.NextCursor == "" {
			break
		}
		req.Params.Cursor = res.NextCursor
	}
	return out, nil
}

// CallTool invokes one tool and converts its result.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return tools.Result{}, fmt.Errorf("call %s: %w", name, err)
	}
	if res == nil {
		return tools.Result{}, nil
	}
	return toResult(res), nil
}

func (s *Session) Close() error {
	return s.client.Close()
}

// toResult keeps text blocks as text and turns JSON embedded resources into
// json blocks. Other content types carry nothing the planner reads.
func toResult(res *mcp.CallToolResult) tools.Result {
	out := tools.Result{StructuredContent: res.StructuredContent, IsError: res.IsError}
	for _, c := range res.Content {
		if text, ok := mcp.AsTextContent(c); ok {
			out.Content = append(out.Content, tools.Content{Type: "text", Text: text.Text})
			continue
		}
		embedded, ok := mcp.AsEmbeddedResource(c)
		if !ok {
			continue
		}
		rc, ok := mcp.AsTextResourceContents(embedded.Resource)
		if !ok {
			continue
		}
		if strings.Contains(rc.MIMEType, "json") {
			var v any
			if err := json.Unmarshal([]byte(rc.Text), &v); err == nil {
				out.Content = append(out.Content, tools.Content{Type: "json", JSON: v})
				continue
			}
		}
		out.Content = append(out.Content, tools.Content{Type: "text", Text: rc.Text})
	}
	return out
}
