// Package pipeline orchestrates the discovery, render, and merge stages of a
// docfold run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/merge"
	"github.com/docfold/docfold/internal/render"
	"github.com/docfold/docfold/internal/source"
)

// ErrNoURLs is returned when discovery yields zero eligible URLs.
var ErrNoURLs = errors.New("discovery produced no URLs")

// ErrNoPages is returned when no page rendered successfully.
var ErrNoPages = errors.New("no pages rendered successfully")

// Renderer turns an ordered URL list into per-page PDF artifacts.
type Renderer interface {
	RenderAll(ctx context.Context, urls []string) []render.Artifact
	Close(ctx context.Context) error
}

// RendererFactory creates the Renderer once discovery has produced work. The
// shared browser process is expensive, so it is not launched for runs that
// die with an empty URL list.
type RendererFactory func() (Renderer, error)

// Merger folds ordered (URL, artifact) pairs into the output document.
type Merger interface {
	Merge(units []merge.Unit, outPath string) (int, error)
}

// Pipeline wires the three stages. Data flows strictly forward: failures in a
// later stage never re-enter an earlier one.
type Pipeline struct {
	src         source.Source
	newRenderer RendererFactory
	merger      Merger
	cfg         Config
	logger      *zap.Logger
	runID       string
}

// New constructs a Pipeline. Each run gets its own ID attached to every log line.
func New(src source.Source, newRenderer RendererFactory, merger Merger, cfg Config, logger *zap.Logger) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		src:         src,
		newRenderer: newRenderer,
		merger:      merger,
		cfg:         cfg,
		logger:      logger.With(zap.String("run_id", runID)),
		runID:       runID,
	}
}

// Run executes one full discovery → render → merge pass. Only two conditions
// are fatal: no URLs discovered and no pages rendered. Everything else
// degrades with a logged diagnostic and the largest possible partial output.
func (p *Pipeline) Run(ctx context.Context) error {
	urls, err := p.src.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover urls: %w", err)
	}
	if len(urls) == 0 {
		return ErrNoURLs
	}
	p.logger.Info("urls selected", zap.Int("count", len(urls)))

	renderer, err := p.newRenderer()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer func() {
		if cerr := renderer.Close(ctx); cerr != nil {
			p.logger.Warn("failed to close renderer", zap.Error(cerr))
		}
	}()

	artifacts := renderer.RenderAll(ctx, urls)
	if len(artifacts) == 0 {
		return ErrNoPages
	}

	units := make([]merge.Unit, len(artifacts))
	for i, a := range artifacts {
		units[i] = merge.Unit{URL: a.URL, Path: a.Path}
	}

	pages, err := p.merger.Merge(units, p.cfg.OutputPath)
	if err != nil {
		if errors.Is(err, merge.ErrNothingToMerge) {
			return ErrNoPages
		}
		return fmt.Errorf("merge output: %w", err)
	}
	p.logger.Info("wrote output",
		zap.String("path", p.cfg.OutputPath),
		zap.Int("pages", pages),
		zap.Int("documents", len(units)))

	if !p.cfg.KeepArtifacts {
		p.cleanup(artifacts)
	}
	return nil
}

// cleanup removes the per-page artifacts and, if it empties, their directory.
func (p *Pipeline) cleanup(artifacts []render.Artifact) {
	for _, a := range artifacts {
		if err := os.Remove(a.Path); err != nil {
			p.logger.Debug("failed to remove artifact", zap.String("path", a.Path), zap.Error(err))
		}
	}
	if err := os.Remove(p.cfg.ArtifactDir); err != nil {
		p.logger.Debug("artifact dir not removed", zap.String("dir", p.cfg.ArtifactDir), zap.Error(err))
	}
}
