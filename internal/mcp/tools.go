package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"prefabricator/internal/store"
	"prefabricator/internal/template"
	"prefabricator/internal/validate"
)

type ListTemplatesInput struct {
	Kind   string `json:"kind,omitempty" jsonschema:"template or collection"`
	Prefix string `json:"prefix,omitempty" jsonschema:"restrict to asset paths with this prefix"`
}

type GetTemplateInput struct {
	Path string `json:"path" jsonschema:"asset path of the template or collection"`
}

type GetReferencesInput struct {
	Path      string `json:"path" jsonschema:"asset path"`
	Direction string `json:"direction,omitempty" jsonschema:"outgoing, incoming, or both"`
}

type DependentsInput struct {
	Path  string `json:"path" jsonschema:"asset path"`
	Depth int    `json:"depth,omitempty" jsonschema:"maximum number of reference hops"`
}

type ValidateInput struct{}

type AssetSummaryOutput struct {
	Path          string `json:"path"`
	Kind          string `json:"kind"`
	SchemaVersion int    `json:"schema_version"`
	Actors        int    `json:"actors"`
	Components    int    `json:"components"`
	SourceFile    string `json:"source_file,omitempty"`
}

type ListTemplatesOutput struct {
	Assets []AssetSummaryOutput `json:"assets"`
}

type ComponentOutput struct {
	Name   string   `json:"name,omitempty"`
	ItemID string   `json:"item_id"`
	Class  string   `json:"class"`
	Fields []string `json:"fields"`
}

type ActorOutput struct {
	ItemID     string            `json:"item_id"`
	Class      string            `json:"class"`
	Location   [3]float32        `json:"location"`
	Fields     []string          `json:"fields"`
	Components []ComponentOutput `json:"components"`
}

type CollectionEntryOutput struct {
	Template string  `json:"template"`
	Weight   float64 `json:"weight"`
}

type TemplateOutput struct {
	Path           string                  `json:"path"`
	Kind           string                  `json:"kind"`
	SchemaVersion  int                     `json:"schema_version,omitempty"`
	LastUpdateID   string                  `json:"last_update_id,omitempty"`
	RootMobility   string                  `json:"root_mobility,omitempty"`
	EventListener  string                  `json:"event_listener,omitempty"`
	RootComponents []ComponentOutput       `json:"root_components,omitempty"`
	Actors         []ActorOutput           `json:"actors,omitempty"`
	Nested         []string                `json:"nested,omitempty"`
	Entries        []CollectionEntryOutput `json:"entries,omitempty"`
}

type ReferenceOutput struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type GetReferencesOutput struct {
	References []ReferenceOutput `json:"references"`
}

type DependentOutput struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

type DependentsOutput struct {
	Dependents []DependentOutput `json:"dependents"`
}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Asset    string `json:"asset"`
	Item     string `json:"item,omitempty"`
}

type ValidateOutput struct {
	Errors int           `json:"errors"`
	Issues []IssueOutput `json:"issues"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_templates",
		Description: "List stored templates and collections with optional filters",
	}, s.handleListTemplates)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_template",
		Description: "Describe a template's actors and components, or a collection's entries",
	}, s.handleGetTemplate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_references",
		Description: "List nested templates, collection picks and soft asset references of an asset",
	}, s.handleGetReferences)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "template_dependents",
		Description: "List templates and collections that nest or pick an asset",
	}, s.handleDependents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_templates",
		Description: "Check every stored template and collection for load problems",
	}, s.handleValidate)
}

func (s *Server) handleListTemplates(ctx context.Context, req *sdk.CallToolRequest, input ListTemplatesInput) (*sdk.CallToolResult, ListTemplatesOutput, error) {
	items, err := s.db.ListAssets(ctx, input.Kind, input.Prefix)
	if err != nil {
		return nil, ListTemplatesOutput{}, err
	}

	output := make([]AssetSummaryOutput, 0, len(items))
	for _, item := range items {
		output = append(output, AssetSummaryOutput{
			Path:          item.Path,
			Kind:          item.Kind,
			SchemaVersion: item.SchemaVersion,
			Actors:        item.Actors,
			Components:    item.Components,
			SourceFile:    item.SourceFile,
		})
	}
	return nil, ListTemplatesOutput{Assets: output}, nil
}

func (s *Server) handleGetTemplate(ctx context.Context, req *sdk.CallToolRequest, input GetTemplateInput) (*sdk.CallToolResult, TemplateOutput, error) {
	if input.Path == "" {
		return nil, TemplateOutput{}, fmt.Errorf("path is required")
	}
	a, err := s.db.GetAsset(ctx, input.Path)
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	if a != nil {
		return nil, templateOutputFromAsset(a), nil
	}

	c, err := s.db.GetCollection(ctx, input.Path)
	if err != nil {
		return nil, TemplateOutput{}, err
	}
	if c == nil {
		return nil, TemplateOutput{}, fmt.Errorf("template not found")
	}
	out := TemplateOutput{Path: c.Path, Kind: store.KindCollection}
	for _, e := range c.Entries {
		out.Entries = append(out.Entries, CollectionEntryOutput{Template: e.Template, Weight: e.Weight})
	}
	return nil, out, nil
}

func (s *Server) handleGetReferences(ctx context.Context, req *sdk.CallToolRequest, input GetReferencesInput) (*sdk.CallToolResult, GetReferencesOutput, error) {
	if input.Path == "" {
		return nil, GetReferencesOutput{}, fmt.Errorf("path is required")
	}
	refs, err := s.db.ListReferences(ctx, input.Path, input.Direction)
	if err != nil {
		return nil, GetReferencesOutput{}, err
	}

	output := make([]ReferenceOutput, 0, len(refs))
	for _, ref := range refs {
		output = append(output, ReferenceOutput{From: ref.From, To: ref.To, Type: ref.Type})
	}
	return nil, GetReferencesOutput{References: output}, nil
}

func (s *Server) handleDependents(ctx context.Context, req *sdk.CallToolRequest, input DependentsInput) (*sdk.CallToolResult, DependentsOutput, error) {
	if input.Path == "" {
		return nil, DependentsOutput{}, fmt.Errorf("path is required")
	}
	depth := input.Depth
	if depth == 0 {
		depth = 1
	}
	deps, err := s.db.Dependents(ctx, input.Path, depth)
	if err != nil {
		return nil, DependentsOutput{}, err
	}

	output := make([]DependentOutput, 0, len(deps))
	for _, d := range deps {
		output = append(output, DependentOutput{Path: d.Path, Depth: d.Depth})
	}
	return nil, DependentsOutput{Dependents: output}, nil
}

func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, input ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	report, err := validate.Run(ctx, s.db, s.classes)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	output := ValidateOutput{Errors: report.Errors(), Issues: make([]IssueOutput, 0, len(report.Issues))}
	for _, issue := range report.Issues {
		output.Issues = append(output.Issues, IssueOutput{
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			Asset:    issue.Asset,
			Item:     issue.Item,
		})
	}
	return nil, output, nil
}

func templateOutputFromAsset(a *template.Asset) TemplateOutput {
	out := TemplateOutput{
		Path:          a.Path,
		Kind:          store.KindTemplate,
		SchemaVersion: a.SchemaVersion,
		LastUpdateID:  a.LastUpdateID.String(),
		RootMobility:  a.RootMobility.String(),
		EventListener: a.EventListener,
		Nested:        a.NestedTemplates(),
	}
	for _, c := range a.ComponentData {
		out.RootComponents = append(out.RootComponents, componentOutput(c))
	}
	for _, r := range a.ActorData {
		loc := r.RelativeTransform.Location
		actor := ActorOutput{
			ItemID:     r.ItemID.String(),
			Class:      r.ClassPath,
			Location:   [3]float32{loc.X, loc.Y, loc.Z},
			Fields:     r.Properties.Names(),
			Components: make([]ComponentOutput, 0, len(r.Components)),
		}
		for _, c := range r.Components {
			actor.Components = append(actor.Components, componentOutput(c))
		}
		out.Actors = append(out.Actors, actor)
	}
	return out
}

func componentOutput(c *template.ComponentRecord) ComponentOutput {
	return ComponentOutput{
		Name:   c.Name,
		ItemID: c.ItemID.String(),
		Class:  c.ClassPath,
		Fields: c.Properties.Names(),
	}
}
