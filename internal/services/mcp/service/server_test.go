package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oppajeom/oppajeom/internal/services/mcp/domain"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	server, err := New(nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), time.Second)
	defer clientCancel()
	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		select {
		case <-serveErr:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return session
}

func callTool[T any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (T, bool) {
	t.Helper()
	var out T
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return out, false
	}
	if res.IsError {
		return out, false
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
	return out, true
}

func TestListTools(t *testing.T) {
	session := connect(t)
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"cast_hexagram", "lookup_hexagram", "weekly_focus"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestCastHexagramFromLines(t *testing.T) {
	session := connect(t)
	got, ok := callTool[domain.CastHexagramResult](t, session, "cast_hexagram", map[string]any{"lines": "777776"})
	if !ok {
		t.Fatal("cast_hexagram failed")
	}
	if got.BinaryCode != "111110" || got.Seed != nil {
		t.Fatalf("result = %+v", got)
	}
	if len(got.MovingLines) != 1 || got.MovingLines[0] != 6 {
		t.Fatalf("moving lines = %v", got.MovingLines)
	}
	if got.Transformed == nil || got.Transformed.Number != 1 || got.ChangedName != got.Transformed.Name {
		t.Fatalf("transformed = %+v changed = %q", got.Transformed, got.ChangedName)
	}
}

func TestCastHexagramSeeded(t *testing.T) {
	session := connect(t)
	first, ok := callTool[domain.CastHexagramResult](t, session, "cast_hexagram", map[string]any{"seed": 7})
	if !ok {
		t.Fatal("cast_hexagram failed")
	}
	second, _ := callTool[domain.CastHexagramResult](t, session, "cast_hexagram", map[string]any{"seed": 7})
	if first.Lines != second.Lines || len(first.Lines) != 6 {
		t.Fatalf("seeded casts differ: %q vs %q", first.Lines, second.Lines)
	}
	if first.Seed == nil || *first.Seed != 7 {
		t.Fatalf("seed = %v", first.Seed)
	}
}

func TestLookupHexagram(t *testing.T) {
	session := connect(t)
	byCode, ok := callTool[domain.HexagramSummary](t, session, "lookup_hexagram", map[string]any{"code": "000000"})
	if !ok || byCode.Number != 2 {
		t.Fatalf("by code = %+v ok=%v", byCode, ok)
	}
	byNumber, ok := callTool[domain.HexagramSummary](t, session, "lookup_hexagram", map[string]any{"number": 2})
	if !ok || byNumber.Code != "000000" {
		t.Fatalf("by number = %+v ok=%v", byNumber, ok)
	}

	for name, args := range map[string]map[string]any{
		"empty":      {},
		"bad code":   {"code": "0101"},
		"bad number": {"number": 65},
	} {
		if _, ok := callTool[domain.HexagramSummary](t, session, "lookup_hexagram", args); ok {
			t.Errorf("%s: expected tool error", name)
		}
	}
}

func TestWeeklyFocus(t *testing.T) {
	session := connect(t)
	week1, ok := callTool[domain.WeeklyFocusResult](t, session, "weekly_focus", map[string]any{"lines": "786789", "week": 1})
	if !ok || week1.Position != 0 || week1.Passage == "" || week1.Theme == "" {
		t.Fatalf("week 1 = %+v ok=%v", week1, ok)
	}
	week2, ok := callTool[domain.WeeklyFocusResult](t, session, "weekly_focus", map[string]any{"lines": "786789", "week": 2})
	if !ok || week2.Position != 3 || !week2.UsedMovingLine {
		t.Fatalf("week 2 = %+v ok=%v", week2, ok)
	}
	if _, ok := callTool[domain.WeeklyFocusResult](t, session, "weekly_focus", map[string]any{"lines": "786789", "week": 5}); ok {
		t.Fatal("expected error for week 5")
	}
}

func TestServeRequiresConfiguredServer(t *testing.T) {
	var s *Server
	if err := s.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}
}
