package common

import (
	"context"

	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// TableRef is one table entry in the explorer tree.
type TableRef struct {
	Schema string
	Name   string
	Active bool
}

// SchemaGroup is one schema and its tables, in warehouse order.
type SchemaGroup struct {
	Name   string
	Tables []TableRef
}

// BuildSchemaTree groups the warehouse's tables by schema for the explorer
// sidebar. Schemas come back in pipeline order (raw through marts) with
// system namespaces dropped. The entry matching activeSchema.activeTable,
// if any, is marked Active.
func BuildSchemaTree(ctx context.Context, sess warehouse.Session, activeSchema, activeTable string) ([]SchemaGroup, error) {
	names, err := sess.SchemaNames(ctx)
	if err != nil {
		return nil, err
	}

	var groups []SchemaGroup
	for _, schema := range names {
		if schema == "information_schema" || schema == "pg_catalog" {
			continue
		}
		tables, err := sess.Tables(ctx, schema)
		if err != nil {
			return nil, err
		}
		group := SchemaGroup{Name: schema, Tables: make([]TableRef, 0, len(tables))}
		for _, table := range tables {
			group.Tables = append(group.Tables, TableRef{
				Schema: schema,
				Name:   table,
				Active: schema == activeSchema && table == activeTable,
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}
