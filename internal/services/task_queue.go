package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/pkg/logger"
)

const (
	TaskTypeExportZip = "export:zip"
)

// ExportTask is a queued gallery archive export. Option fields carry the raw
// request values and are validated again by the processor.
type ExportTask struct {
	JobID         string    `json:"job_id"`
	ProjectID     uint      `json:"project_id"`
	GalleryID     uint      `json:"gallery_id"`
	PersonIDs     []uint    `json:"person_ids,omitempty"`
	ZipContent    string    `json:"zip_content"`
	FilenameMode  string    `json:"filename_mode"`
	PersonType    string    `json:"person_type,omitempty"`
	IncludeReport bool      `json:"include_report"`
	RequestedAt   time.Time `json:"requested_at"`
}

// TaskQueue defines the interface for export task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *ExportTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue picks the Redis backed queue when enabled and reachable and
// falls back to in-process execution otherwise.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if !cfg.Redis.Enabled {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
			return
		}
		queue, err := NewAsyncQueue(&cfg.Redis)
		if err != nil {
			logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
			globalTaskQueue = NewSyncQueue()
			return
		}
		logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
		globalTaskQueue = queue
	})
	return globalTaskQueue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue uses the job id as task id so a job cannot be queued twice.
func (q *AsyncQueue) Enqueue(task *ExportTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeExportZip, payload),
		asynq.TaskID(task.JobID),
		asynq.Queue("exports"),
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Minute),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Export enqueued: job=%s, queue=%s", info.ID, info.Queue)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks in a goroutine of the current process (no Redis).
type SyncQueue struct {
	processor func(context.Context, *ExportTask) error
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function to process tasks
func (q *SyncQueue) SetProcessor(processor func(context.Context, *ExportTask) error) {
	q.processor = processor
}

// Enqueue starts the task and returns immediately.
func (q *SyncQueue) Enqueue(task *ExportTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, job %s dropped", task.JobID)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] Export job %s failed: %v", task.JobID, err)
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for running tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
