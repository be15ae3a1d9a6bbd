// Package api runs conversions against stored sources.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luminnexus/alchemy/internal/htmlmd"
	"github.com/luminnexus/alchemy/internal/storage"
)

// Store is the persistence the batch runner needs.
type Store interface {
	ListSources(ctx context.Context, q storage.SourceQuery) ([]storage.Source, error)
	UpsertConversion(ctx context.Context, c *storage.Conversion) error
}

// API converts stored HTML with one engine.
type API struct {
	storage    Store
	engine     htmlmd.Engine
	engineName string
	logger     *slog.Logger
}

// NewAPI creates a new API instance. engineName is recorded with every
// stored result.
func NewAPI(store Store, engine htmlmd.Engine, engineName string, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if engineName == "" {
		engineName = htmlmd.EnginePasses
	}
	return &API{
		storage:    store,
		engine:     engine,
		engineName: engineName,
		logger:     logger,
	}
}

// BatchOptions selects the rows to convert.
type BatchOptions struct {
	Query storage.SourceQuery
	// Selector narrows every document before conversion.
	Selector string
}

// Failure records why one row was not stored.
type Failure struct {
	SourceID string `json:"source_id"`
	Error    string `json:"error"`
}

// BatchSummary counts the outcome of a run.
type BatchSummary struct {
	Total     int       `json:"total"`
	Converted int       `json:"converted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// ConvertTable converts every source row and stores the result. Rows with a
// NULL HTML column are skipped; a row that fails to convert or store is
// logged and counted, and the run moves on. Only listing the sources or a
// cancelled ctx stop the run.
func (a *API) ConvertTable(ctx context.Context, opts BatchOptions) (*BatchSummary, error) {
	sources, err := a.storage.ListSources(ctx, opts.Query)
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{Total: len(sources)}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("batch interrupted after %d rows: %w", summary.Converted+summary.Skipped+summary.Failed, err)
		}

		if !src.HTML.Valid {
			a.logger.Warn("skipping row with NULL html", "table", opts.Query.Table, "id", src.ID)
			summary.Skipped++
			continue
		}

		markdown, err := a.engine.ConvertString(src.HTML.String, opts.Selector)
		if err == nil {
			err = a.storage.UpsertConversion(ctx, &storage.Conversion{
				SourceTable: opts.Query.Table,
				SourceID:    src.ID,
				Engine:      a.engineName,
				Markdown:    markdown,
			})
		}
		if err != nil {
			a.logger.Warn("row failed, continuing", "table", opts.Query.Table, "id", src.ID, "error", err)
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{SourceID: src.ID, Error: err.Error()})
			continue
		}

		a.logger.Debug("row converted", "table", opts.Query.Table, "id", src.ID, "bytes", len(markdown))
		summary.Converted++
	}
	return summary, nil
}
