// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a zone database blob full of synthetic zones,
// for benchmarks and manual testing.
package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/bpowers/tzdb"
	"github.com/bpowers/tzdb/internal/zoneinfo"
)

const (
	defaultZones   = 1000
	defaultVersion = "2021a"
	maxTransitions = 64
	yearSeconds    = 365 * 24 * 60 * 60
)

var (
	nZones  = flag.Int("n", defaultZones, "number of zones to generate")
	output  = flag.String("o", "", "output path (default stdout)")
	version = flag.String("version", defaultVersion, "5-byte tzdata version label")
	seed    = flag.Int64("seed", 0, "random seed (0 picks one)")
)

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

func genZone(rng *rand.Rand, id string) zoneinfo.Zone {
	// standard offsets are whole quarter hours between -12h and +14h
	raw := int32(rng.Intn(105)-48) * 15 * 60
	types := []zoneinfo.Type{{UTCOffset: raw}}
	if rng.Intn(2) == 0 {
		types = append(types, zoneinfo.Type{UTCOffset: raw + 3600, IsDST: true})
	}

	n := rng.Intn(maxTransitions + 1)
	times := make([]int32, n)
	t := int32(-rng.Intn(60)) * yearSeconds
	for i := range times {
		t += int32(rng.Intn(yearSeconds) + 1)
		times[i] = t
	}
	transitionTypes := make([]uint8, n)
	for i := range transitionTypes {
		transitionTypes[i] = uint8(i % len(types))
	}

	return zoneinfo.Zone{
		ID:        id,
		RawOffset: raw,
		Record: zoneinfo.Record{
			TransitionTimes: times,
			TransitionTypes: transitionTypes,
			Types:           types,
		},
	}
}

func genZones(rng *rand.Rand, n int) []zoneinfo.Zone {
	zones := make([]zoneinfo.Zone, n)
	for i := range zones {
		zones[i] = genZone(rng, fmt.Sprintf("Zone/%05d", i))
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones
}

func run(w io.Writer) error {
	zones := genZones(newRand(*seed), *nZones)
	if _, err := zoneinfo.Write(w, *version, zones); err != nil {
		return err
	}
	return nil
}

func main() {
	flag.Parse()

	if *output == "" {
		if err := run(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
			os.Exit(1)
		}
		return
	}

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
		os.Exit(1)
	}
	if err := run(f); err != nil {
		_ = f.Close()
		_ = os.Remove(*output)
		fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
		os.Exit(1)
	}

	// sanity check that the result is openable
	db, err := tzdb.Open(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote %d zones (version %s) to %s\n", db.Len(), db.Version(), *output)
	_ = db.Close()
}
