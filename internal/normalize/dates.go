/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package normalize rewrites text columns holding Spanish long-form dates
// ("diciembre 22, 2025, 4:13 p. m.") into canonical "YYYY-MM-DD HH:MM:SS"
// strings. This covers exactly one locale's long-date format; it is not a
// general date parser.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/tabular-context/internal/loader"
)

const (
	// SampleSize is how many non-empty values are inspected per column.
	SampleSize = 10
	// MatchThreshold is the fraction of the sample that must parse before
	// the whole column is rewritten.
	MatchThreshold = 0.7
)

var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

var spanishDateRe = regexp.MustCompile(
	`(?i)^(\p{L}+)\s+(\d{1,2}),\s*(\d{4}),?\s*(\d{1,2}):(\d{2})\s*(a\.?\s*m\.?|p\.?\s*m\.?)`,
)

// ParseSpanishDate converts "diciembre 22, 2025, 4:13 p. m." into
// "2025-12-22 16:13:00". The second return value is false when the input
// does not match the expected format.
func ParseSpanishDate(value string) (string, bool) {
	// Exported values often carry non-breaking spaces.
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, " ", " "))
	m := spanishDateRe.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}

	month, ok := spanishMonths[strings.ToLower(m[1])]
	if !ok {
		return "", false
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	meridiem := strings.ToLower(strings.NewReplacer(".", "", " ", "").Replace(m[6]))
	if meridiem == "pm" && hour != 12 {
		hour += 12
	} else if meridiem == "am" && hour == 12 {
		hour = 0
	}

	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:00", year, month, day, hour, minute), true
}

// DateColumns rewrites, in place, every TEXT column whose sampled values are
// predominantly Spanish long-form dates. Values that do not parse are passed
// through unchanged; no row is ever dropped. Columns below the threshold are
// left untouched.
func DateColumns(t *loader.Table, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for ci, col := range t.Columns {
		if col.Type != loader.TypeText {
			continue
		}

		sampled, hits := 0, 0
		for _, row := range t.Rows {
			if sampled >= SampleSize {
				break
			}
			v := row[ci]
			if strings.TrimSpace(v) == "" {
				continue
			}
			sampled++
			if _, ok := ParseSpanishDate(v); ok {
				hits++
			}
		}
		if sampled == 0 || float64(hits)/float64(sampled) < MatchThreshold {
			continue
		}

		converted := 0
		for _, row := range t.Rows {
			if iso, ok := ParseSpanishDate(row[ci]); ok {
				row[ci] = iso
				converted++
			}
		}
		logger.Info("normalized date column",
			zap.String("table", t.Name),
			zap.String("column", col.Name),
			zap.Int("converted", converted),
		)
	}
}
