package task

// Operation represents the type of task operation.
type Operation string

// Operation values for the task queue.
const (
	// OperationProcessRun runs the full ingestion pipeline for one
	// processing run: fetch, classify, change-detect, chunk, embed,
	// summarize.
	OperationProcessRun Operation = "vitae.run.process"

	// OperationSyncProjects refreshes a user's project list from the code
	// host without processing content.
	OperationSyncProjects Operation = "vitae.projects.sync"
)

// Payload keys shared between enqueuers and handlers.
const (
	PayloadRunReference = "run_reference"
	PayloadUserID       = "user_id"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// All returns every operation a worker must have a handler for.
func All() []Operation {
	return []Operation{OperationProcessRun, OperationSyncProjects}
}
