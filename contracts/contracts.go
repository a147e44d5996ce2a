// Package contracts embeds the OpenAPI documents served at /docs and used for request validation.
package contracts

import (
	"embed"
	"fmt"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed *.yaml
var files embed.FS

// Names lists the mounted API documents in display order.
var Names = []string{
	"content-pages",
	"sections",
	"events",
	"activities",
	"rsvps",
	"reports",
}

// Load parses and validates the named document.
func Load(name string) (*openapi3.T, error) {
	if !slices.Contains(Names, name) {
		return nil, fmt.Errorf("unknown contract %q", name)
	}

	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read contract %s: %w", name, err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse contract %s: %w", name, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate contract %s: %w", name, err)
	}
	return doc, nil
}
