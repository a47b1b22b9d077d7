package planner

// Options that control how mapping tasks are grouped into batches.
type BatchOptions struct {
	// When disabled every task gets its own channel.
	Enabled bool

	// Upper bound for tasks per batch.
	MaxBatchSize int

	// Mappings producing more samples than this always get a batch of
	// their own.
	SmallMappingThreshold int
}

// A group of mapping tasks of the same kind that are exported to a single
// channel named after the first task.
type Batch struct {
	Tasks []*Task
}

// The task whose guid names the batch channel.
func (b *Batch) First() *Task {
	return b.Tasks[0]
}

// Group consecutive mapping tasks into batches. Without batching every task
// becomes a single-task batch. Batches never mix mapping kinds and the
// debug mapping is never grouped with other mappings.
func Group(tasks []*Task, opts BatchOptions) []Batch {
	batches := make([]Batch, 0, len(tasks))
	if !opts.Enabled {
		for _, task := range tasks {
			batches = append(batches, Batch{Tasks: []*Task{task}})
		}
		return batches
	}

	maxSize := opts.MaxBatchSize
	if maxSize < 1 {
		maxSize = 1
	}

	var cur []*Task
	flush := func() {
		if len(cur) != 0 {
			batches = append(batches, Batch{Tasks: cur})
			cur = nil
		}
	}

	for _, task := range tasks {
		if !groupable(task, opts) {
			flush()
			batches = append(batches, Batch{Tasks: []*Task{task}})
			continue
		}
		if len(cur) != 0 && (cur[0].Kind != task.Kind || len(cur) == maxSize) {
			flush()
		}
		cur = append(cur, task)
	}
	flush()

	return batches
}

func groupable(task *Task, opts BatchOptions) bool {
	return task.IsMapping() && !task.Debug && task.Cost <= opts.SmallMappingThreshold
}
