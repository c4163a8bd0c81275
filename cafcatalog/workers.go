package main

import (
	"fmt"

	caf "github.com/DUNE/duneanaobj_go/pkg"
)

type WorkerData struct {
	Entry  int
	Record *caf.StandardRecord
}

type WorkerResult struct {
	Entry    int
	Record   *caf.StandardRecord
	Summary  caf.EntrySummary
	Repaired bool
	Err      error
}

// worker validates records, repairing counts when configured, and
// summarizes the ones that pass.
func worker(id int, jobs <-chan WorkerData, results chan<- WorkerResult) {
	for job := range jobs {
		results <- checkRecord(id, job)
	}
}

func checkRecord(id int, job WorkerData) (result WorkerResult) {
	result = WorkerResult{Entry: job.Entry, Record: job.Record}
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("worker %d recovered from panic on entry %d: %v", id, job.Entry, r)
		}
	}()

	if VerbosityLevel > 1 {
		logger.Info(fmt.Sprintf("Worker %d checking entry %d", id, job.Entry), "worker")
	}
	if err := job.Record.Validate(); err != nil {
		if !configuration.RepairCounts {
			result.Err = err
			return result
		}
		job.Record.RepairCounts()
		if err := job.Record.Validate(); err != nil {
			result.Err = err
			return result
		}
		result.Repaired = true
	}
	result.Summary = caf.Summarize(job.Entry, job.Record)
	return result
}

// sendRecordsToWorkers applies skip and max entries and closes jobs when done.
func sendRecordsToWorkers(records []*caf.StandardRecord, jobs chan<- WorkerData) {
	sent := 0
	for entry, rec := range records {
		if entry < configuration.Skip {
			if VerbosityLevel > 1 {
				logger.Info(fmt.Sprintf("Skipping entry %d", entry), "reader")
			}
			continue
		}
		if sent >= configuration.MaxEntries {
			if VerbosityLevel > 0 {
				logger.Info("Max entries reached", "reader")
			}
			break
		}
		jobs <- WorkerData{Entry: entry, Record: rec}
		sent++
	}
	close(jobs)
}
