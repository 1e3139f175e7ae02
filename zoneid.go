// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tzdb

import (
	"os"
	"strings"
)

// LocalZoneID is the fallback zone id: local wall-clock time with no entry
// in the zone table.
const LocalZoneID = "Local"

// ZoneIDSource supplies the platform's default zone id.  ok is false when
// the platform has no opinion.
type ZoneIDSource interface {
	DefaultZoneID() (id string, ok bool)
}

// StaticZoneIDSource always reports the same id.  The empty string means
// unavailable.
type StaticZoneIDSource string

func (s StaticZoneIDSource) DefaultZoneID() (string, bool) {
	return string(s), s != ""
}

// EnvZoneIDSource reads the default zone id from the TZ environment
// variable.  A leading ':' (as allowed by POSIX) is stripped.
type EnvZoneIDSource struct{}

func (EnvZoneIDSource) DefaultZoneID() (string, bool) {
	tz, ok := os.LookupEnv("TZ")
	tz = strings.TrimPrefix(tz, ":")
	if !ok || tz == "" {
		return "", false
	}
	return tz, true
}

// DefaultZoneID returns the id src reports if the database contains it,
// and LocalZoneID otherwise.
func (db *Database) DefaultZoneID(src ZoneIDSource) string {
	if src == nil {
		return LocalZoneID
	}
	id, ok := src.DefaultZoneID()
	if !ok || !db.Contains(id) {
		return LocalZoneID
	}
	return id
}
