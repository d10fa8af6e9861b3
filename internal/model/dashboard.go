package model

type ProjectCounts struct {
	Total int64 `json:"total"`
}

type TaskCounts struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Review     int64 `json:"review"`
	Done       int64 `json:"done"`
}

// Add accumulates count rows of the given status into both the bucket and Total.
func (c *TaskCounts) Add(status TaskStatus, n int64) {
	switch status {
	case StatusTodo:
		c.Todo += n
	case StatusInProgress:
		c.InProgress += n
	case StatusReview:
		c.Review += n
	case StatusDone:
		c.Done += n
	default:
		return
	}
	c.Total += n
}

type Dashboard struct {
	Projects      ProjectCounts `json:"projects"`
	Tasks         TaskCounts    `json:"tasks"`
	RecentUpdates []DailyUpdate `json:"recent_updates"`
	RecentTasks   []Task        `json:"recent_tasks"`
}
