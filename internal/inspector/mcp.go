package inspector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/recruitgraph/internal/observe"
	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// MCP tool names.
const (
	ToolRecruitOptions   = "recruit_options"
	ToolRecruitersNeeded = "recruiters_needed"
	ToolBestRecruit      = "best_recruit"
	ToolRecruitDistance  = "recruit_distance"
	ToolRecruitFor       = "recruit_for"
)

type recruitOptionsInput struct {
	Creature  string `json:"creature" jsonschema:"creature name, e.g. Centaur"`
	Direction string `json:"direction,omitempty" jsonschema:"recruits (what the creature can recruit, default) or recruiters (what can recruit it)"`
}

type recruitersNeededInput struct {
	Recruiter string `json:"recruiter" jsonschema:"creature doing the recruiting"`
	Recruit   string `json:"recruit" jsonschema:"creature to be recruited"`
	Terrain   string `json:"terrain" jsonschema:"terrain name, e.g. Plains"`
	Hex       string `json:"hex,omitempty" jsonschema:"masterboard hex label passed to special rules"`
}

type bestRecruitInput struct {
	Creature string         `json:"creature" jsonschema:"creature to start from"`
	Legion   map[string]int `json:"legion,omitempty" jsonschema:"legion contents as creature name to count"`
}

type recruitDistanceInput struct {
	Lesser   string `json:"lesser" jsonschema:"the weaker creature"`
	Greater  string `json:"greater" jsonschema:"the stronger creature"`
	Distance *int   `json:"distance,omitempty" jsonschema:"maximum number of recruit steps"`
}

type recruitForInput struct {
	Recruiter string `json:"recruiter" jsonschema:"creature doing the recruiting"`
	Terrain   string `json:"terrain" jsonschema:"terrain name"`
	Number    int    `json:"number" jsonschema:"number of recruiters revealed"`
}

// tools adapts a [Service] to MCP tool handlers.
type tools struct {
	svc *Service
}

// NewMCPServer returns an MCP server exposing svc's queries as tools.
func NewMCPServer(svc *Service, version string) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: observe.DefaultServiceName, Version: version}, nil)
	t := &tools{svc: svc}

	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolRecruitOptions,
		Description: "List recruit options of a creature: what it recruits in each terrain and how many are needed, or what recruits it.",
	}, t.recruitOptions)
	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolRecruitersNeeded,
		Description: "How many recruiters of one creature are needed to recruit another in a terrain. 99 means impossible.",
	}, t.recruitersNeeded)
	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolBestRecruit,
		Description: "The highest valued creature reachable from a creature given current stock and the legion contents.",
	}, t.bestRecruit)
	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolRecruitDistance,
		Description: "Whether the greater creature is within a number of recruit steps of the lesser one.",
	}, t.recruitDistance)
	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolRecruitFor,
		Description: "Which creature a number of recruiters muster in a terrain.",
	}, t.recruitFor)

	return s
}

func (t *tools) recruitOptions(ctx context.Context, _ *mcp.CallToolRequest, in recruitOptionsInput) (*mcp.CallToolResult, any, error) {
	var (
		opts []recruit.RecruitOption
		err  error
	)
	switch in.Direction {
	case "", "recruits":
		opts, err = t.svc.RecruitableBy(ctx, in.Creature)
	case "recruiters":
		opts, err = t.svc.RecruitersOf(ctx, in.Creature)
	default:
		err = fmt.Errorf("%w: direction %q", ErrInvalidArgument, in.Direction)
	}
	return t.result(ctx, ToolRecruitOptions, nonNil(opts), err)
}

func (t *tools) recruitersNeeded(ctx context.Context, _ *mcp.CallToolRequest, in recruitersNeededInput) (*mcp.CallToolResult, any, error) {
	n, err := t.svc.NumberOfRecruiterNeeded(ctx, in.Recruiter, in.Recruit, recruit.Terrain(in.Terrain), in.Hex)
	return t.result(ctx, ToolRecruitersNeeded, map[string]any{"number": n, "possible": n < recruit.BigNum}, err)
}

func (t *tools) bestRecruit(ctx context.Context, _ *mcp.CallToolRequest, in bestRecruitInput) (*mcp.CallToolResult, any, error) {
	res, err := t.svc.BestRecruit(ctx, in.Creature, in.Legion)
	return t.result(ctx, ToolBestRecruit, res, err)
}

func (t *tools) recruitDistance(ctx context.Context, _ *mcp.CallToolRequest, in recruitDistanceInput) (*mcp.CallToolResult, any, error) {
	distance := -1
	if in.Distance != nil {
		distance = *in.Distance
	}
	within, err := t.svc.RecruitDistance(ctx, in.Lesser, in.Greater, distance)
	return t.result(ctx, ToolRecruitDistance, map[string]any{"within": within}, err)
}

func (t *tools) recruitFor(ctx context.Context, _ *mcp.CallToolRequest, in recruitForInput) (*mcp.CallToolResult, any, error) {
	name, ok, err := t.svc.RecruitFor(ctx, in.Recruiter, recruit.Terrain(in.Terrain), in.Number)
	return t.result(ctx, ToolRecruitFor, map[string]any{"recruit": name, "found": ok}, err)
}

// result renders v as JSON text content. Service errors become tool errors
// so the calling model can read them and retry.
func (t *tools) result(ctx context.Context, tool string, v any, err error) (*mcp.CallToolResult, any, error) {
	t.svc.metrics.RecordToolCall(ctx, tool, observe.StatusOf(err))
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("inspector: %s: encode result: %w", tool, err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
