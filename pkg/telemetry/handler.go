// Package telemetry persists error-level log records to Parquet files so
// failures survive process restarts and can be queried offline.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/JFK/kagura-ai-sub000/pkg/types"
)

// LogRecord is a single log entry in Parquet storage.
type LogRecord struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	Level      string    `parquet:"level"`
	Message    string    `parquet:"message"`
	Scope      string    `parquet:"scope"`
	RequestID  string    `parquet:"request_id"`
	SourceFile string    `parquet:"source_file"`
	LineNumber int       `parquet:"line_number"`
	Attributes string    `parquet:"attributes"` // JSON string
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally batches error-level records into Parquet files
// under outputDir.
type ParquetHandler struct {
	next      slog.Handler
	outputDir string
	mu        *sync.Mutex
	buffer    *[]LogRecord
	batchSize int
}

// NewParquetHandler creates the handler and its output directory.
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create output dir: %w", err)
	}
	buf := make([]LogRecord, 0, defaultBatchSize)
	return &ParquetHandler{
		next:      next,
		outputDir: outputDir,
		mu:        &sync.Mutex{},
		buffer:    &buf,
		batchSize: defaultBatchSize,
	}, nil
}

const defaultBatchSize = 100

func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	var scope, requestID string
	if v, ok := ctx.Value(types.ContextKeyScope).(string); ok {
		scope = v
	}
	if v, ok := ctx.Value(types.ContextKeyRequestID).(string); ok {
		requestID = v
	}

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	attrsJSON, _ := json.Marshal(attrs)

	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()

	record := LogRecord{
		ID:         uuid.New().String(),
		Timestamp:  r.Time.UTC(),
		Level:      r.Level.String(),
		Message:    r.Message,
		Scope:      scope,
		RequestID:  requestID,
		SourceFile: f.File,
		LineNumber: f.Line,
		Attributes: string(attrsJSON),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.buffer = append(*h.buffer, record)
	if len(*h.buffer) >= h.batchSize {
		return h.flushLocked()
	}
	return nil
}

// Flush writes any buffered records out immediately. Call on shutdown.
func (h *ParquetHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushLocked()
}

func (h *ParquetHandler) flushLocked() error {
	if len(*h.buffer) == 0 {
		return nil
	}
	name := fmt.Sprintf("errors_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(h.outputDir, name)
	if err := parquet.WriteFile(path, *h.buffer); err != nil {
		return fmt.Errorf("telemetry: write parquet file: %w", err)
	}
	*h.buffer = (*h.buffer)[:0]
	return nil
}

// WithAttrs and WithGroup share the buffer so child loggers batch into
// the same files.

func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	return &clone
}

func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	return &clone
}
