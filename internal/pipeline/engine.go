package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// Engine is the pipeline execution engine
type Engine struct {
	stages      []Stage
	logger      *logging.Logger
	mu          sync.RWMutex
	activePipes map[string]*Context
}

// NewEngine creates a new pipeline engine
func NewEngine() *Engine {
	return &Engine{
		stages:      make([]Stage, 0),
		logger:      logging.New("pipeline-engine"),
		activePipes: make(map[string]*Context),
	}
}

// AddStage adds a stage to the pipeline
func (e *Engine) AddStage(stage Stage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stages = append(e.stages, stage)
	e.logger.Info("Stage added", "stage", stage.Name())
}

// Execute runs the pipeline with all stages
func (e *Engine) Execute(ctx context.Context, pctx *Context) error {
	e.mu.Lock()
	e.activePipes[pctx.RequestID] = pctx
	stages := e.stages
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.activePipes, pctx.RequestID)
		e.mu.Unlock()
	}()

	e.logger.Debug("Starting pipeline execution",
		"request_id", pctx.RequestID,
		"stages", len(stages))

	for _, stage := range stages {
		select {
		case <-ctx.Done():
			pctx.Cancel()
			return ctx.Err()
		default:
		}

		if pctx.Cancelled() {
			return fmt.Errorf("pipeline cancelled")
		}

		stageStart := time.Now()
		if err := stage.Execute(ctx, pctx); err != nil {
			e.logger.Error("Stage failed",
				"request_id", pctx.RequestID,
				"stage", stage.Name(),
				"error", err)
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}

		e.logger.Debug("Stage completed",
			"request_id", pctx.RequestID,
			"stage", stage.Name(),
			"duration", time.Since(stageStart))
	}

	e.logger.Debug("Pipeline execution completed",
		"request_id", pctx.RequestID,
		"duration", pctx.ElapsedTime())

	return nil
}

// Process runs one audio request through the full pipeline and returns
// the populated context with transcript, translation and output audio
func (e *Engine) Process(ctx context.Context, audio []byte, from, to string, opts *provider.Options) (*Context, error) {
	pctx := NewContext(uuid.New().String(), "", from, to, opts)
	pctx.AudioInput = audio
	if err := e.Execute(ctx, pctx); err != nil {
		return pctx, err
	}
	return pctx, nil
}

// Cancel cancels an active pipeline
func (e *Engine) Cancel(requestID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	pctx, ok := e.activePipes[requestID]
	if !ok {
		return false
	}
	pctx.Cancel()
	return true
}

// Active returns the number of pipelines currently executing
func (e *Engine) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.activePipes)
}
