package jobs

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
)
