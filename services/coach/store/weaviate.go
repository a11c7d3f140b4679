// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"golang.org/x/sync/errgroup"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// variantFetchConcurrency bounds parallel Weaviate queries during a bulk
// canonical fetch. Batch sizes are small (a plan rarely names more than ~20
// movements); 8 concurrent queries saturates a single-node Weaviate.
const variantFetchConcurrency = 8

// defaultListLimit caps unfiltered catalog listings.
const defaultListLimit = 25

// WeaviateCatalog implements CatalogStore against a Weaviate class holding
// exercise variants.
//
// # Description
//
// The class carries one object per concrete variant with the properties
// name, description, canonicalName, primaryMuscle, equipmentNeeded,
// equipmentCategory, difficulty, hasVideo, hasAnimation and isCompound.
// Vector search uses nearVector with a certainty cutoff; keyword search
// uses BM25 over name and description.
//
// # Thread Safety
//
// Safe for concurrent use. The underlying client is stateless per request.
type WeaviateCatalog struct {
	client    *weaviate.Client
	className string
	logger    *slog.Logger
}

// NewWeaviateCatalog connects to Weaviate at host using scheme.
//
// Outputs:
//   - *WeaviateCatalog: Ready-to-use store. Never nil on success.
//   - error: Non-nil if the client configuration is rejected.
func NewWeaviateCatalog(host, scheme, className string, logger *slog.Logger) (*WeaviateCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("weaviate catalog: creating client: %w", err)
	}
	return &WeaviateCatalog{client: client, className: className, logger: logger}, nil
}

// variantFields is the GraphQL field set fetched for every variant query.
func variantFields() []graphql.Field {
	return []graphql.Field{
		{Name: "name"},
		{Name: "description"},
		{Name: "canonicalName"},
		{Name: "primaryMuscle"},
		{Name: "equipmentNeeded"},
		{Name: "difficulty"},
		{Name: "hasVideo"},
		{Name: "hasAnimation"},
		{Name: "isCompound"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "certainty"},
		}},
	}
}

// SearchByVector returns variants ranked by similarity to vector.
func (w *WeaviateCatalog) SearchByVector(ctx context.Context, vector []float32, f SearchFilters, threshold float64, limit int) ([]RankedVariant, error) {
	nearVector := w.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(float32(threshold))

	query := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(variantFields()...).
		WithNearVector(nearVector).
		WithLimit(limit)

	if where := buildWhere(f); where != nil {
		query = query.WithWhere(where)
	}

	resp, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate catalog: vector search: %w", err)
	}

	rows, err := w.decodeRows(resp)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedVariant, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, RankedVariant{
			Variant:   decodeVariant(row),
			Certainty: decodeCertainty(row),
		})
	}
	return ranked, nil
}

// SearchByKeyword returns variants whose name or description matches query.
func (w *WeaviateCatalog) SearchByKeyword(ctx context.Context, query string, f SearchFilters, limit int) ([]datatypes.ExerciseVariant, error) {
	bm25 := w.client.GraphQL().Bm25ArgBuilder().
		WithQuery(query).
		WithProperties("name", "description")

	gql := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(variantFields()...).
		WithBM25(bm25).
		WithLimit(limit)

	if where := buildWhere(f); where != nil {
		gql = gql.WithWhere(where)
	}

	resp, err := gql.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate catalog: keyword search: %w", err)
	}
	return w.decodeVariants(resp)
}

// ListVariants returns variants matching the filters only.
func (w *WeaviateCatalog) ListVariants(ctx context.Context, f SearchFilters, limit int) ([]datatypes.ExerciseVariant, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	gql := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(variantFields()...).
		WithLimit(limit)

	if where := buildWhere(f); where != nil {
		gql = gql.WithWhere(where)
	}

	resp, err := gql.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate catalog: listing variants: %w", err)
	}
	return w.decodeVariants(resp)
}

// VariantsForCanonical bulk-fetches variants per canonical name.
//
// Sub-queries run concurrently (bounded by variantFetchConcurrency) and the
// result preserves one entry per requested name regardless of completion
// order, so batch resolution sees the same per-name variant lists as N
// single fetches would.
func (w *WeaviateCatalog) VariantsForCanonical(ctx context.Context, canonicalNames []string) (map[string][]datatypes.ExerciseVariant, error) {
	results := make([][]datatypes.ExerciseVariant, len(canonicalNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(variantFetchConcurrency)

	for i, name := range canonicalNames {
		g.Go(func() error {
			where := filters.Where().
				WithPath([]string{"canonicalName"}).
				WithOperator(filters.Equal).
				WithValueText(name)

			resp, err := w.client.GraphQL().Get().
				WithClassName(w.className).
				WithFields(variantFields()...).
				WithWhere(where).
				Do(gctx)
			if err != nil {
				return fmt.Errorf("weaviate catalog: variants for %q: %w", name, err)
			}

			variants, err := w.decodeVariants(resp)
			if err != nil {
				return err
			}
			results[i] = variants
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]datatypes.ExerciseVariant, len(canonicalNames))
	for i, name := range canonicalNames {
		out[name] = results[i]
	}
	return out, nil
}

// AllVariants returns the full catalog.
func (w *WeaviateCatalog) AllVariants(ctx context.Context) ([]datatypes.ExerciseVariant, error) {
	resp, err := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(variantFields()...).
		WithLimit(10000).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate catalog: listing catalog: %w", err)
	}
	return w.decodeVariants(resp)
}

// =============================================================================
// Decoding
// =============================================================================

// decodeRows extracts the raw object rows for the store's class from a
// GraphQL response, surfacing GraphQL-level errors.
func (w *WeaviateCatalog) decodeRows(resp *models.GraphQLResponse) ([]map[string]any, error) {
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate catalog: graphql error: %s", resp.Errors[0].Message)
	}

	get, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	rawRows, ok := get[w.className].([]any)
	if !ok {
		return nil, nil
	}

	rows := make([]map[string]any, 0, len(rawRows))
	for _, r := range rawRows {
		if m, ok := r.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

// decodeVariants decodes a response into plain variants, dropping rank info.
func (w *WeaviateCatalog) decodeVariants(resp *models.GraphQLResponse) ([]datatypes.ExerciseVariant, error) {
	rows, err := w.decodeRows(resp)
	if err != nil {
		return nil, err
	}
	variants := make([]datatypes.ExerciseVariant, 0, len(rows))
	for _, row := range rows {
		variants = append(variants, decodeVariant(row))
	}
	return variants, nil
}

// decodeVariant maps one GraphQL object row to an ExerciseVariant.
func decodeVariant(row map[string]any) datatypes.ExerciseVariant {
	v := datatypes.ExerciseVariant{
		Name:          asString(row["name"]),
		Description:   asString(row["description"]),
		CanonicalName: asString(row["canonicalName"]),
		PrimaryMuscle: asString(row["primaryMuscle"]),
		Difficulty:    asString(row["difficulty"]),
		HasVideo:      asBool(row["hasVideo"]),
		HasAnimation:  asBool(row["hasAnimation"]),
		IsCompound:    asBool(row["isCompound"]),
	}

	if eq, ok := row["equipmentNeeded"].([]any); ok {
		for _, e := range eq {
			if s := asString(e); s != "" {
				v.EquipmentNeeded = append(v.EquipmentNeeded, s)
			}
		}
	}

	if add, ok := row["_additional"].(map[string]any); ok {
		v.ID = asString(add["id"])
	}
	return v
}

// decodeCertainty pulls the similarity certainty out of _additional.
func decodeCertainty(row map[string]any) float64 {
	add, ok := row["_additional"].(map[string]any)
	if !ok {
		return 0
	}
	if c, ok := add["certainty"].(float64); ok {
		return c
	}
	return 0
}

// buildWhere converts SearchFilters to a where filter, or nil when empty.
func buildWhere(f SearchFilters) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	if f.MuscleGroup != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"primaryMuscle"}).
			WithOperator(filters.Equal).
			WithValueText(f.MuscleGroup))
	}
	if f.EquipmentCategory != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"equipmentCategory"}).
			WithOperator(filters.Equal).
			WithValueText(f.EquipmentCategory))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

// asString safely converts a GraphQL value to string.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asBool safely converts a GraphQL value to bool.
func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
