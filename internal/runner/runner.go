// Package runner loads the configured extracts and drives one pipeline run
// per trigger, for both the CLI and the HTTP API.
package runner

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tableio"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Request overrides the configured run options. Nil fields keep the default.
type Request struct {
	Products           []string `json:"products,omitempty" validate:"dive,required"`
	OnlyPhysisch       *bool    `json:"only_physisch,omitempty"`
	OnlyEmployees      *bool    `json:"only_employees,omitempty"`
	DropOtherRelations *bool    `json:"drop_other_relations,omitempty"`
	StrictEmail        *bool    `json:"strict_email,omitempty"`
}

// Apply returns base with the overrides of r
func (r Request) Apply(base pipeline.Options) pipeline.Options {
	opts := base
	if len(r.Products) > 0 {
		opts.Products = r.Products
	}
	if r.OnlyPhysisch != nil {
		opts.Individuals.OnlyPhysisch = *r.OnlyPhysisch
	}
	if r.OnlyEmployees != nil {
		opts.Individuals.OnlyEmployees = *r.OnlyEmployees
	}
	if r.DropOtherRelations != nil {
		opts.DropOtherRelations = *r.DropOtherRelations
	}
	if r.StrictEmail != nil {
		opts.StrictEmail = *r.StrictEmail
	}
	return opts
}

// Loader reads the inputs of a run
type Loader func() (pipeline.Input, error)

// FromPaths loads inputs from CSV extracts
func FromPaths(paths tableio.Paths) Loader {
	return func() (pipeline.Input, error) {
		return tableio.LoadInput(paths)
	}
}

// Runner serializes runs of one process
type Runner struct {
	pipeline *pipeline.Pipeline
	load     Loader
	defaults pipeline.Options
	logger   ectologger.Logger
	mu       sync.Mutex
}

// New creates a new Runner
func New(p *pipeline.Pipeline, load Loader, defaults pipeline.Options, logger ectologger.Logger) *Runner {
	return &Runner{
		pipeline: p,
		load:     load,
		defaults: defaults,
		logger:   logger,
	}
}

// Trigger runs the pipeline once. A run already in progress, here or in
// another instance holding the shared lock, is a 409.
func (r *Runner) Trigger(ctx context.Context, req Request) (*pipeline.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "runner.Runner.Trigger")
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid run request")
	}
	opts := req.Apply(r.defaults)
	if err := opts.Validate(); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !r.mu.TryLock() {
		return nil, httperror.NewHTTPError(http.StatusConflict, "a run is already in progress")
	}
	defer r.mu.Unlock()

	in, err := r.load()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load run input")
		return nil, err
	}

	result, err := r.pipeline.Run(ctx, in, opts)
	switch {
	case errors.Is(err, redis.ErrLockNotAcquired):
		return nil, httperror.NewHTTPError(http.StatusConflict, "a run is already in progress")
	case errors.Is(err, pipeline.ErrUnknownProduct):
		return nil, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return result, err
}
