// Package mcp exposes the template store to MCP clients over stdio.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"prefabricator/internal/store"
	"prefabricator/internal/validate"
)

// AssetQuerier is the read side of the store the tools use.
type AssetQuerier interface {
	validate.Source
	ListReferences(ctx context.Context, path, direction string) ([]store.Reference, error)
	Dependents(ctx context.Context, path string, depth int) ([]store.Dependent, error)
}

type Server struct {
	db      AssetQuerier
	classes validate.Classes
	mcp     *sdk.Server
}

func NewServer(db AssetQuerier, classes validate.Classes, version string) *Server {
	s := &Server{
		db:      db,
		classes: classes,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "prefabricator",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
