// Package validate checks stored templates and collections for problems a
// load would trip over.
package validate

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"prefabricator/internal/class"
	"prefabricator/internal/store"
	"prefabricator/internal/template"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeOutdatedSchema         = "outdated_schema"
	codeMissingItemID          = "missing_item_id"
	codeDuplicateItemID        = "duplicate_item_id"
	codeUnknownClass           = "unknown_class"
	codeClassKindMismatch      = "class_kind_mismatch"
	codeCrossReferenceFlag     = "cross_reference_flag"
	codeDanglingCrossReference = "dangling_cross_reference"
	codeMissingNestedTemplate  = "missing_nested_template"
	codeEmptyCollection        = "empty_collection"
	codeMissingCollectionEntry = "missing_collection_entry"
	codeReferenceCycle         = "reference_cycle"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Asset    string
	Item     string
}

type Report struct {
	Issues []Issue
}

// Errors counts issues of error severity.
func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Run validates every stored asset. classes may be nil, in which case class
// paths are not checked.
func Run(ctx context.Context, src Source, classes Classes) (*Report, error) {
	if src == nil {
		return nil, fmt.Errorf("asset source is required")
	}

	summaries, err := src.ListAssets(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	known := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		known[s.Path] = true
	}

	issues := make([]Issue, 0)
	edges := make(map[string][]string)

	for _, summary := range summaries {
		switch summary.Kind {
		case store.KindTemplate:
			a, err := src.GetAsset(ctx, summary.Path)
			if err != nil {
				return nil, fmt.Errorf("get asset %s: %w", summary.Path, err)
			}
			if a == nil {
				continue
			}
			issues = append(issues, validateAsset(a, classes)...)
			for _, target := range a.NestedTemplates() {
				edges[a.Path] = append(edges[a.Path], target)
				if !known[target] {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Code:     codeMissingNestedTemplate,
						Message:  fmt.Sprintf("nested instance binds missing template %s", target),
						Asset:    a.Path,
					})
				}
			}
		case store.KindCollection:
			c, err := src.GetCollection(ctx, summary.Path)
			if err != nil {
				return nil, fmt.Errorf("get collection %s: %w", summary.Path, err)
			}
			if c == nil {
				continue
			}
			issues = append(issues, validateCollection(c, known)...)
			for _, e := range c.Entries {
				edges[c.Path] = append(edges[c.Path], e.Template)
			}
		}
	}

	for _, cycle := range findCycles(edges) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeReferenceCycle,
			Message:  fmt.Sprintf("reference cycle: %v", cycle),
			Asset:    cycle[0],
		})
	}

	return &Report{Issues: issues}, nil
}

func validateAsset(a *template.Asset, classes Classes) []Issue {
	var issues []Issue
	add := func(severity Severity, code, item, format string, args ...any) {
		issues = append(issues, Issue{
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
			Asset:    a.Path,
			Item:     item,
		})
	}

	if template.NeedsUpgrade(a) {
		add(SeverityWarn, codeOutdatedSchema, "", "schema version %d is older than %d", a.SchemaVersion, template.Latest)
	}
	if id, ok := a.CheckItemIDs(); !ok {
		add(SeverityError, codeDuplicateItemID, id.String(), "item id %s is used more than once", id)
	}

	ids := make(map[uuid.UUID]bool)
	a.Items(func(it *template.Item) { ids[it.ItemID] = true })

	checkItem := func(it *template.Item, kind class.Kind) {
		item := it.ItemID.String()
		if it.ItemID == uuid.Nil {
			add(SeverityError, codeMissingItemID, "", "%s record has no item id", it.ClassPath)
		}
		if classes != nil {
			c, ok := classes.Lookup(it.ClassPath)
			switch {
			case !ok:
				add(SeverityWarn, codeUnknownClass, item, "class %s is not registered", it.ClassPath)
			case c.Kind != kind:
				add(SeverityError, codeClassKindMismatch, item, "class %s is a %s class, stored as %s", it.ClassPath, c.Kind, kind)
			}
		}
		for _, name := range it.Properties.Names() {
			rec := it.Properties[name]
			if rec == nil {
				continue
			}
			if rec.IsCrossReferencedActor != rec.HasCrossReference() {
				add(SeverityError, codeCrossReferenceFlag, item, "field %s cross-reference flag does not match its entries", name)
			}
			for _, path := range rec.Paths() {
				e := rec.Entries[path]
				if e.IsCrossReference() && !ids[e.CrossReferenceID] {
					add(SeverityWarn, codeDanglingCrossReference, item, "%s references item %s outside the template", path, e.CrossReferenceID)
				}
			}
		}
	}

	for _, c := range a.ComponentData {
		checkItem(&c.Item, class.KindComponent)
	}
	for _, r := range a.ActorData {
		checkItem(&r.Item, class.KindActor)
		for _, c := range r.Components {
			checkItem(&c.Item, class.KindComponent)
		}
	}

	return issues
}

func validateCollection(c *template.Collection, known map[string]bool) []Issue {
	var issues []Issue
	if len(c.Entries) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeEmptyCollection,
			Message:  "collection has no entries",
			Asset:    c.Path,
		})
	}
	for _, e := range c.Entries {
		if !known[e.Template] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingCollectionEntry,
				Message:  fmt.Sprintf("collection entry points at missing asset %s", e.Template),
				Asset:    c.Path,
			})
		}
	}
	return issues
}

// findCycles returns one path per cycle reachable in edges, each starting
// at its lexically smallest member so a cycle is reported once.
func findCycles(edges map[string][]string) [][]string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	seen := make(map[string]bool)
	var cycles [][]string
	var stack []string

	var visit func(node string)
	visit = func(node string) {
		state[node] = active
		stack = append(stack, node)
		for _, next := range edges[node] {
			switch state[next] {
			case unvisited:
				visit(next)
			case active:
				start := 0
				for i, n := range stack {
					if n == next {
						start = i
						break
					}
				}
				cycle := canonicalCycle(stack[start:])
				key := fmt.Sprint(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
	}

	nodes := make([]string, 0, len(edges))
	for n := range edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if state[n] == unvisited {
			visit(n)
		}
	}
	return cycles
}

func canonicalCycle(cycle []string) []string {
	lo := 0
	for i, n := range cycle {
		if n < cycle[lo] {
			lo = i
		}
	}
	out := make([]string, 0, len(cycle)+1)
	out = append(out, cycle[lo:]...)
	out = append(out, cycle[:lo]...)
	return append(out, out[0])
}
