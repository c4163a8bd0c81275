package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	caf "github.com/DUNE/duneanaobj_go/pkg"
)

var configuration caf.Configuration

var (
	logger         caf.SlogLogger
	VerbosityLevel int
	DiscardErrors  bool
)

func init() {
	logger = caf.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	caf.SetConfiguration(configuration)
	caf.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	DiscardErrors = configuration.Discard
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Reading configuration file: %s", *configFilename), "main")
		printConfiguration(configuration, logger)
	}

	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	start := time.Now()

	reader, err := caf.OpenReader(configuration.FileIn)
	if err != nil {
		return fmt.Errorf("Error opening file: %w", err)
	}
	records, err := reader.ReadRaw()
	closeErr := reader.Close()
	if err != nil {
		return fmt.Errorf("error reading records: %w", err)
	}
	if closeErr != nil {
		logger.Error(closeErr.Error())
	}
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Number of entries: %d", len(records)), "main")
	}

	results := checkRecords(records)

	valid := make([]WorkerResult, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			if !DiscardErrors {
				return fmt.Errorf("entry %d: %w", result.Entry, result.Err)
			}
			logger.Error(fmt.Sprintf("discarding entry %d: %v", result.Entry, result.Err))
			continue
		}
		if result.Repaired {
			logger.Info(fmt.Sprintf("Repaired counts of entry %d", result.Entry), "main")
		}
		valid = append(valid, result)
	}

	if configuration.WriteData && configuration.FileOut != "" {
		if err := writeRecords(configuration.FileOut, valid); err != nil {
			return err
		}
	}

	if !configuration.NoDB {
		if err := catalogRecords(configuration.FileIn, len(records), valid); err != nil {
			return err
		}
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Checked %d entries, %d valid, in %d ms",
		len(results), len(valid), duration.Milliseconds()), "main")
	return nil
}

// checkRecords runs the records through the worker pool and returns the
// results in entry order.
func checkRecords(records []*caf.StandardRecord) []WorkerResult {
	jobs := make(chan WorkerData, 100)
	results := make(chan WorkerResult, 100)

	var wg sync.WaitGroup
	for w := 1; w <= configuration.NumWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, jobs, results)
		}(w)
	}
	go sendRecordsToWorkers(records, jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	checked := make([]WorkerResult, 0, len(records))
	for result := range results {
		checked = append(checked, result)
	}
	slices.SortFunc(checked, func(a, b WorkerResult) int {
		return a.Entry - b.Entry
	})
	return checked
}

func writeRecords(filename string, results []WorkerResult) error {
	writer, err := caf.NewWriter(filename)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	for _, result := range results {
		if err := writer.WriteRecord(result.Record); err != nil {
			writer.Close()
			return fmt.Errorf("error writing entry %d: %w", result.Entry, err)
		}
	}
	return writer.Close()
}

func catalogRecords(filename string, nEntries int, results []WorkerResult) error {
	dbConn, err := caf.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()

	fileID, err := caf.RegisterFile(dbConn, filename, nEntries)
	if err != nil {
		return err
	}
	summaries := make([]caf.EntrySummary, len(results))
	for i, result := range results {
		summaries[i] = result.Summary
	}
	return caf.InsertEntrySummaries(dbConn, fileID, summaries)
}
