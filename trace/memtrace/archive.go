package memtrace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
)

// Document is the on-disk schema memtrace reads and writes, standing in
// for the external trace-archive format (spec.md §6's "Persisted state
// layout: the corrected trace is written in the same format as the
// input"). It is not a reduced trace-archive format, only a serializable
// mirror of Builder's inputs, convenient for the CLI demo and
// integration tests.
type Document struct {
	Locations     []LocationDoc     `json:"locations"`
	Communicators []CommunicatorDoc `json:"communicators,omitempty"`
	World         []location.Coordinate `json:"world"`
}

// LocationDoc is one location's coordinate and ordered event specs.
type LocationDoc struct {
	Coordinate location.Coordinate `json:"coordinate"`
	Events     []EventSpec         `json:"events"`
}

// CommunicatorDoc is one communicator's id and member ranks, in rank
// order.
type CommunicatorDoc struct {
	ID    trace.CommunicatorID  `json:"id"`
	Ranks []location.Coordinate `json:"ranks"`
}

// Load reads a Document from path and assembles it into a Trace.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memtrace: open archive: %w", err)
	}
	defer f.Close()

	var doc Document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("memtrace: decode archive: %w", err)
	}
	return doc.Build(), nil
}

// Build assembles doc into a Trace, the moral equivalent of the external
// trace infrastructure's "definitions load" plus "per-location trace
// load" (spec.md §6).
func (doc Document) Build() *Trace {
	b := NewBuilder()
	for _, ld := range doc.Locations {
		b.AddLocation(ld.Coordinate, ld.Events)
	}
	for _, cd := range doc.Communicators {
		b.AddCommunicator(cd.ID, cd.Ranks...)
	}
	b.SetWorld(doc.World...)
	return b.Build()
}

// Dump reads tr back out into a Document, capturing every event's
// current (possibly corrected) timestamp and its matching-begin linkage,
// so it can be re-serialized by Save.
func Dump(tr *Trace) Document {
	doc := Document{World: append([]location.Coordinate{}, tr.world.Ranks...)}

	for id, comm := range tr.communicators {
		doc.Communicators = append(doc.Communicators, CommunicatorDoc{ID: id, Ranks: comm.Ranks})
	}

	for _, loc := range tr.Locations() {
		stream := tr.streams[loc]
		events := make([]EventSpec, len(stream.events))
		for i, e := range stream.events {
			spec := e.spec
			spec.Timestamp = e.ts
			events[i] = spec
		}
		doc.Locations = append(doc.Locations, LocationDoc{Coordinate: loc, Events: events})
	}
	return doc
}

// Save writes tr to path as a Document, creating or truncating the file.
func Save(path string, tr *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("memtrace: create archive: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Dump(tr)); err != nil {
		return fmt.Errorf("memtrace: encode archive: %w", err)
	}
	return nil
}
