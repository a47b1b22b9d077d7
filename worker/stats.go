package worker

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Statistics for a single task goroutine.
type RunnerStats struct {
	Id int

	Completed int
	Failed    int

	BytesWritten int64

	// Time spent solving and exporting tasks.
	BusyTime time.Duration
}

// Worker statistics.
type Stats struct {
	Runners []RunnerStats

	// Number of tasks in the plan.
	Tasks int

	// Wall clock time spent executing the plan.
	ExecutionTime time.Duration
}

// Get the total number of failed tasks.
func (s Stats) Failed() int {
	var failed int
	for _, rs := range s.Runners {
		failed += rs.Failed
	}
	return failed
}

// Render statistics as a table.
func (s Stats) String() string {
	var (
		buf               bytes.Buffer
		completed, failed int
		bytesWritten      int64
	)

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Runner", "Completed", "Failed", "Bytes written", "Busy time", "% busy"})
	for _, rs := range s.Runners {
		var busyPercent float64
		if s.ExecutionTime > 0 {
			busyPercent = 100 * float64(rs.BusyTime) / float64(s.ExecutionTime)
		}
		table.Append([]string{
			fmt.Sprintf("%d", rs.Id),
			fmt.Sprintf("%d", rs.Completed),
			fmt.Sprintf("%d", rs.Failed),
			fmt.Sprintf("%d", rs.BytesWritten),
			rs.BusyTime.String(),
			fmt.Sprintf("%02.1f %%", busyPercent),
		})
		completed += rs.Completed
		failed += rs.Failed
		bytesWritten += rs.BytesWritten
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", completed),
		fmt.Sprintf("%d", failed),
		fmt.Sprintf("%d", bytesWritten),
		s.ExecutionTime.String(),
		"",
	})
	table.Render()

	return buf.String()
}
