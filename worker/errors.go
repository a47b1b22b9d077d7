package worker

import "errors"

var (
	ErrAlreadyRunning = errors.New("worker: Run may only be called once")
	ErrSceneImport    = errors.New("worker: scene import failed")
	ErrUnknownTask    = errors.New("worker: unknown task kind")
)
