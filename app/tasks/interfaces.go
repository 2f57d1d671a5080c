package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background content processing.
// Example usage:
//
//	scheduler := NewScheduler(contentRepo, notificationRepo, broadcaster)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueuePublishTask(uuid, eventType)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueuePublishTask(contentUUID string, eventType string) error
}
