// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package proposal turns model output into normalized, catalog-resolved
// training plan proposals.
package proposal

import (
	"context"
	"errors"
	"log/slog"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// ErrUnusable marks a proposal whose every exercise failed resolution. The
// caller must treat the generation as failed; there is no partial plan to
// show the user.
var ErrUnusable = errors.New("proposal has no resolvable exercises")

// Processor normalizes and resolves plan proposals.
//
// Thread Safety: Safe for concurrent use.
type Processor struct {
	resolver VariantResolver
	catalog  CatalogLister
	logger   *slog.Logger
}

// NewProcessor creates a Processor.
//
// Inputs:
//   - resolver: Canonical-name resolution. Must not be nil.
//   - catalog: Full-catalog source for fuzzy matching. Must not be nil.
//   - logger: May be nil.
func NewProcessor(resolver VariantResolver, catalog CatalogLister, logger *slog.Logger) *Processor {
	if resolver == nil {
		panic("proposal.NewProcessor: resolver must not be nil")
	}
	if catalog == nil {
		panic("proposal.NewProcessor: catalog must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{resolver: resolver, catalog: catalog, logger: logger}
}

// Process produces the final proposal from an agent run's outputs.
//
// # Description
//
// A proposal already tagged by the plan-creation tool takes priority; the
// closing text is only mined when no tagged proposal exists. Either way the
// result is normalized and every exercise id resolved against the catalog.
//
// Outputs:
//   - *datatypes.PlanProposal: The usable proposal, or nil when the run
//     produced none at all.
//   - error: ErrUnusable when a proposal existed but resolution emptied it;
//     other errors indicate collaborator failure.
func (p *Processor) Process(ctx context.Context, tagged *datatypes.PlanProposal, closingText string, user datatypes.UserContext) (*datatypes.PlanProposal, error) {
	var plan *datatypes.PlanProposal

	switch {
	case tagged != nil:
		normalized := Normalize(*tagged)
		plan = &normalized
	default:
		raw, ok := ExtractFromText(closingText)
		if !ok {
			return nil, nil
		}
		parsed, err := Parse(raw)
		if err != nil {
			// A malformed extraction candidate means no proposal, not a
			// failed run; the closing text still stands on its own.
			p.logger.Debug("discarding unparseable proposal candidate",
				slog.String("error", err.Error()),
			)
			return nil, nil
		}
		plan = parsed
	}

	if err := p.resolveExercises(ctx, plan, user); err != nil {
		return nil, err
	}

	if plan.ExerciseCount() == 0 {
		return nil, ErrUnusable
	}
	return plan, nil
}
