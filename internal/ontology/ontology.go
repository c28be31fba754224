// Package ontology provides a static ICD-10-CM code to description lookup.
// The table is embedded at build time; lookups never fail, a miss yields
// the NotFound sentinel.
package ontology

import (
	_ "embed"
	"encoding/json"
	"sync"
)

// NotFound is returned for any code absent from the embedded table.
const NotFound = "Description not found"

//go:embed icd10.json
var rawTable []byte

var (
	once  sync.Once
	table map[string]string
)

func load() {
	once.Do(func() {
		if err := json.Unmarshal(rawTable, &table); err != nil {
			// The embedded table ships with the binary; a decode failure
			// is a build defect, not a runtime condition.
			panic("ontology: embedded ICD-10 table is corrupt: " + err.Error())
		}
	})
}

// Describe returns the official description for a code, or NotFound.
func Describe(code string) string {
	load()
	if desc, ok := table[code]; ok {
		return desc
	}
	return NotFound
}

// Known reports whether the code exists in the embedded table.
func Known(code string) bool {
	load()
	_, ok := table[code]
	return ok
}

// DescribeAll resolves descriptions for a list of codes, preserving
// the NotFound sentinel for misses.
func DescribeAll(codes []string) map[string]string {
	out := make(map[string]string, len(codes))
	for _, code := range codes {
		out[code] = Describe(code)
	}
	return out
}

// Size returns the number of codes in the embedded table.
func Size() int {
	load()
	return len(table)
}
