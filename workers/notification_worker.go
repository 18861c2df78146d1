package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/notify"
)

const sendTimeout = 15 * time.Second

// NotificationJob announces one posted koma
type NotificationJob struct {
	ComicID uint
	KomaID  uint
	Message string
}

func (j NotificationJob) pendingKey() string {
	return fmt.Sprintf("%d:%d", j.ComicID, j.KomaID)
}

// NotificationDispatcher sends notifications off the request path with a
// fixed pool of workers reading a bounded queue
type NotificationDispatcher struct {
	JobQueue chan NotificationJob
	Notifier notify.Notifier
	Wg       sync.WaitGroup
	Pending  map[string]bool
	Mutex    sync.Mutex

	stopped bool
	log     zerolog.Logger
}

func NewNotificationDispatcher(notifier notify.Notifier, queueSize, numWorkers int, log zerolog.Logger) *NotificationDispatcher {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 32
	}
	d := &NotificationDispatcher{
		JobQueue: make(chan NotificationJob, queueSize),
		Notifier: notifier,
		Pending:  make(map[string]bool),
		log:      log,
	}
	d.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go d.worker(i)
	}
	log.Info().Int("workers", numWorkers).Int("queue_size", queueSize).Msg("workers: started notification dispatcher")
	return d
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.Wg.Done()

	for job := range d.JobQueue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := d.Notifier.Notify(ctx, job.Message)
		cancel()
		if err != nil {
			d.log.Warn().Err(err).Int("worker", id).Uint("comic_id", job.ComicID).Uint("koma_id", job.KomaID).
				Msg("workers: notification failed")
		} else {
			d.log.Debug().Int("worker", id).Uint("comic_id", job.ComicID).Uint("koma_id", job.KomaID).
				Msg("workers: notification sent")
		}

		d.Mutex.Lock()
		delete(d.Pending, job.pendingKey())
		d.Mutex.Unlock()
	}
	d.log.Debug().Int("worker", id).Msg("workers: notification worker stopping, queue closed")
}

// Enqueue never blocks. it returns false when the job is a duplicate of a
// pending one, the queue is full or the dispatcher is stopped.
func (d *NotificationDispatcher) Enqueue(job NotificationJob) bool {
	key := job.pendingKey()

	d.Mutex.Lock()
	defer d.Mutex.Unlock()

	if d.stopped {
		d.log.Warn().Uint("comic_id", job.ComicID).Msg("workers: dispatcher stopped, dropping notification")
		return false
	}
	if d.Pending[key] {
		return false
	}

	select {
	case d.JobQueue <- job:
		d.Pending[key] = true
		return true
	default:
		d.log.Warn().Uint("comic_id", job.ComicID).Uint("koma_id", job.KomaID).
			Msg("workers: notification queue full, dropping notification")
		return false
	}
}

// Stop lets the workers drain what is already queued, then waits for them
func (d *NotificationDispatcher) Stop() {
	d.Mutex.Lock()
	if d.stopped {
		d.Mutex.Unlock()
		return
	}
	d.stopped = true
	close(d.JobQueue)
	d.Mutex.Unlock()

	d.Wg.Wait()
	d.log.Info().Msg("workers: notification dispatcher stopped")
}
