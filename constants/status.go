package constants

// JobStatus is the lifecycle status of a single photo intake job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"     // accepted by the queue
	JobStatusRunning    JobStatus = "RUNNING"    // OCR or extraction in progress
	JobStatusExtracted  JobStatus = "EXTRACTED"  // a value was found
	JobStatusUnreadable JobStatus = "UNREADABLE" // pipeline finished, nothing usable
	JobStatusFailed     JobStatus = "FAILED"     // OCR or I/O failure
)

// ImageConfidenceThreshold is the OCR confidence (0..1) under which a photo is flagged for review.
const ImageConfidenceThreshold = 0.6
