package main

import (
	"testing"

	caf "github.com/DUNE/duneanaobj_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(n int) []*caf.StandardRecord {
	records := make([]*caf.StandardRecord, n)
	for i := range records {
		rec := caf.NewStandardRecord()
		meta := caf.NewDetectorMeta()
		meta.Run = 100
		meta.Event = uint32(i)
		rec.SetDetector(caf.DetectorNDLAr, meta)
		rec.MC.AddInteraction(caf.NewTrueInteraction())
		records[i] = rec
	}
	return records
}

func setTestConfiguration(t *testing.T, config caf.Configuration) {
	t.Helper()
	previous := configuration
	configuration = config
	t.Cleanup(func() { configuration = previous })
}

func TestCheckRecordsKeepsEntryOrder(t *testing.T) {
	config := caf.DefaultConfiguration()
	config.NumWorkers = 4
	config.Skip = 2
	config.MaxEntries = 5
	setTestConfiguration(t, config)

	results := checkRecords(testRecords(10))
	require.Len(t, results, 5)
	for i, result := range results {
		assert.Equal(t, i+2, result.Entry)
		assert.NoError(t, result.Err)
		assert.Equal(t, uint32(i+2), result.Summary.Event)
		assert.Equal(t, "nd_lar", result.Summary.Detector)
	}
}

func TestCheckRecordsReportsMismatch(t *testing.T) {
	records := testRecords(3)
	records[1].MC.NNu = 7

	config := caf.DefaultConfiguration()
	config.NumWorkers = 2
	setTestConfiguration(t, config)

	results := checkRecords(records)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	config.RepairCounts = true
	setTestConfiguration(t, config)
	results = checkRecords(records)
	assert.NoError(t, results[1].Err)
	assert.True(t, results[1].Repaired)
	assert.Equal(t, uint64(1), records[1].MC.NNu)
}
