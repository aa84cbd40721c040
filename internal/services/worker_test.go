package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/tablostudio/guestflow/internal/config"
)

func TestNewWorker_DisabledRedis(t *testing.T) {
	if w := NewWorker(&config.RedisConfig{Enabled: false}, 4); w != nil {
		t.Error("NewWorker() should return nil when Redis is disabled")
	}
}

func TestWorker_HandleExportTask(t *testing.T) {
	var got *ExportTask
	w := &Worker{}
	w.SetProcessor(func(ctx context.Context, task *ExportTask) error {
		got = task
		return nil
	})

	payload, _ := json.Marshal(ExportTask{JobID: "job-1", ProjectID: 3, GalleryID: 9})
	if err := w.handleExportTask(context.Background(), asynq.NewTask(TaskTypeExportZip, payload)); err != nil {
		t.Fatalf("handleExportTask() error = %v", err)
	}
	if got == nil || got.JobID != "job-1" || got.GalleryID != 9 {
		t.Errorf("processor got %+v", got)
	}
}

func TestWorker_HandleExportTask_ProcessorError(t *testing.T) {
	boom := errors.New("boom")
	w := &Worker{}
	w.SetProcessor(func(context.Context, *ExportTask) error { return boom })

	payload, _ := json.Marshal(ExportTask{JobID: "job-2"})
	if err := w.handleExportTask(context.Background(), asynq.NewTask(TaskTypeExportZip, payload)); !errors.Is(err, boom) {
		t.Errorf("handleExportTask() error = %v, expected %v", err, boom)
	}
}

func TestWorker_HandleExportTask_BadPayloadSkipsRetry(t *testing.T) {
	w := &Worker{}
	called := false
	w.SetProcessor(func(context.Context, *ExportTask) error {
		called = true
		return nil
	})

	err := w.handleExportTask(context.Background(), asynq.NewTask(TaskTypeExportZip, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("handleExportTask() error = %v, expected SkipRetry", err)
	}
	if called {
		t.Error("processor should not run for an undecodable payload")
	}
}
