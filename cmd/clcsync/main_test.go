package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
	"github.com/scalasync/clc/trace/memtrace"
	"github.com/stretchr/testify/require"
)

func TestRun_ReportsUsageErrorWithoutArgs(t *testing.T) {
	require.Equal(t, 1, run(nil))
}

func TestRun_ReportsErrorForUnreadableArchive(t *testing.T) {
	require.Equal(t, 1, run([]string{filepath.Join(t.TempDir(), "missing.json")}))
}

func TestRun_WritesCorrectedArchiveOnSuccess(t *testing.T) {
	loc0 := location.Coordinate{Machine: 0, Node: 0, Process: 0}
	loc1 := location.Coordinate{Machine: 0, Node: 1, Process: 1}

	doc := memtrace.Document{
		World: []location.Coordinate{loc0, loc1},
		Locations: []memtrace.LocationDoc{
			{Coordinate: loc0, Events: []memtrace.EventSpec{
				{Kind: trace.KindSend, Timestamp: 1.0, Peer: loc1, Tag: 1, Communicator: 1, MatchingBeginIndex: -1},
			}},
			{Coordinate: loc1, Events: []memtrace.EventSpec{
				{Kind: trace.KindReceive, Timestamp: 1.000002, Peer: loc0, Tag: 1, Communicator: 1, MatchingBeginIndex: -1},
			}},
		},
	}

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.json")
	f, err := os.Create(inPath)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(f).Encode(doc))
	require.NoError(t, f.Close())

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	require.Equal(t, 0, run([]string{inPath}))
	require.FileExists(t, outputName)
}
