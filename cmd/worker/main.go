package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"doc-rater/internal/app"
	"doc-rater/internal/httputil"
	"doc-rater/internal/pipeline"
	"doc-rater/internal/queue"
	"doc-rater/internal/store"
	"doc-rater/internal/terms"
)

// processor runs the rating pipeline for one document.
type processor interface {
	Process(ctx context.Context, req pipeline.Request) error
}

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	defer deps.Cache.Close()
	deps.Log.Info("worker starting", "processing_timeout", deps.Config.ProcessingTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeProcess, processHandler(deps.Deps, deps.Pipeline))
	})

	// Reload term lists from disk when configured
	if fs, ok := deps.Terms.(*terms.FileSource); ok {
		g.Go(func() error {
			return fs.Watch(ctx)
		})
	}

	// Run health check server
	srv := httputil.NewHealthServer(deps.Log, deps.Config.Port)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
	}
}

func processHandler(deps app.Deps, p processor) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var payload queue.ProcessPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("decode process payload: %w", err)
		}
		return handleProcess(ctx, deps, p, payload)
	}
}

func handleProcess(ctx context.Context, deps app.Deps, p processor, payload queue.ProcessPayload) error {
	log := deps.Log.With("document_id", payload.DocumentID)

	doc, err := deps.Store.GetDocument(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc.Status == store.StatusCompleted || doc.Status == store.StatusFailed {
		log.Warn("document already finished, skipping", "status", doc.Status)
		return nil
	}

	content, err := deps.Store.GetDocumentContent(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	runCtx := ctx
	if timeout := deps.Config.ProcessingTimeout; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Process(runCtx, pipeline.Request{
		DocumentID: doc.ID,
		Content:    content,
		MimeType:   doc.MimeType,
	})
}
