package inspector_test

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/recruitgraph/internal/inspector"
	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// connect serves svc over in-memory transports and returns a client session.
func connect(t *testing.T, svc *inspector.Service) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := inspector.NewMCPServer(svc, "test").Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "inspector-test", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// call invokes tool and returns its concatenated text content.
func call(t *testing.T, cs *mcp.ClientSession, tool string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", tool, err)
	}
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), res.IsError
}

func TestMCPServer_ListsTools(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	cs := connect(t, svc)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	want := []string{
		inspector.ToolBestRecruit,
		inspector.ToolRecruitDistance,
		inspector.ToolRecruitFor,
		inspector.ToolRecruitOptions,
		inspector.ToolRecruitersNeeded,
	}
	slices.Sort(want)
	if !slices.Equal(names, want) {
		t.Errorf("tools: expected %v, got %v", want, names)
	}
}

func TestMCPServer_Tools(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	cs := connect(t, svc)

	tests := []struct {
		tool string
		args map[string]any
		want map[string]any
	}{
		{
			tool: inspector.ToolRecruitersNeeded,
			args: map[string]any{"recruiter": "Centaur", "recruit": "Lion", "terrain": "Plains"},
			want: map[string]any{"number": float64(2), "possible": true},
		},
		{
			tool: inspector.ToolBestRecruit,
			args: map[string]any{"creature": "Centaur", "legion": map[string]any{"Centaur": 2}},
			want: map[string]any{"best": "Unicorn"},
		},
		{
			tool: inspector.ToolRecruitDistance,
			args: map[string]any{"lesser": "Centaur", "greater": "Ranger", "distance": 1},
			want: map[string]any{"within": false},
		},
		{
			tool: inspector.ToolRecruitDistance,
			args: map[string]any{"lesser": "Centaur", "greater": "Ranger"},
			want: map[string]any{"within": true},
		},
		{
			tool: inspector.ToolRecruitFor,
			args: map[string]any{"recruiter": "Lion", "terrain": "Plains", "number": 2},
			want: map[string]any{"recruit": "Ranger", "found": true},
		},
	}
	for _, tc := range tests {
		text, isErr := call(t, cs, tc.tool, tc.args)
		if isErr {
			t.Errorf("%s: unexpected tool error %q", tc.tool, text)
			continue
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(text), &got); err != nil {
			t.Errorf("%s: decode %q: %v", tc.tool, text, err)
			continue
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Errorf("%s: %s expected %v, got %v", tc.tool, k, v, got[k])
			}
		}
	}
}

func TestMCPServer_RecruitOptions(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	cs := connect(t, svc)

	text, isErr := call(t, cs, inspector.ToolRecruitOptions, map[string]any{"creature": "Lion", "direction": "recruiters"})
	if isErr {
		t.Fatalf("unexpected tool error %q", text)
	}
	var opts []recruit.RecruitOption
	if err := json.Unmarshal([]byte(text), &opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := recruit.RecruitOption{Terrain: "Plains", StartCreature: "Centaur", TargetCreature: "Lion", NumberRequired: 2}
	if !slices.Contains(opts, want) {
		t.Errorf("recruiters of Lion: %v does not contain %v", opts, want)
	}
}

func TestMCPServer_ToolErrors(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	cs := connect(t, svc)

	tests := []struct {
		tool    string
		args    map[string]any
		wantMsg string
	}{
		{inspector.ToolBestRecruit, map[string]any{"creature": "Centuar"}, `did you mean "Centaur"`},
		{inspector.ToolRecruitOptions, map[string]any{"creature": "Lion", "direction": "sideways"}, "direction"},
		{inspector.ToolRecruitFor, map[string]any{"recruiter": "Lion", "terrain": "Desert", "number": 2}, "unknown terrain"},
	}
	for _, tc := range tests {
		text, isErr := call(t, cs, tc.tool, tc.args)
		if !isErr {
			t.Errorf("%s: expected a tool error, got %q", tc.tool, text)
			continue
		}
		if !strings.Contains(text, tc.wantMsg) {
			t.Errorf("%s: error %q does not mention %q", tc.tool, text, tc.wantMsg)
		}
	}
}
