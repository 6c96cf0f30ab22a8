package driven

import "context"

// FileOp is the kind of change a FileWatcher reports.
type FileOp int

// File operations.
const (
	FileCreated FileOp = iota + 1
	FileModified
	FileRemoved
)

// String returns a short label for the operation.
func (op FileOp) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// FileEvent is a single change to a watched file.
type FileEvent struct {
	Path string
	Op   FileOp
}

// FileWatcher reports changes to files in a set of directories.
type FileWatcher interface {
	// Watch starts monitoring the directories. The channel is closed when
	// ctx is cancelled or the watcher is closed.
	Watch(ctx context.Context, dirs ...string) (<-chan FileEvent, error)

	// Close stops the watcher and releases its resources.
	Close() error
}
