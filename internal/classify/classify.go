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

// Package classify detects text columns that store numeric quantities in
// inconsistent formats (currency symbols, thousands separators, ranges,
// "Desde"/"From" prefixes) and synthesizes executable SQL expressions that
// extract clean numeric values from them.
package classify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/tabular-context/internal/backend"
)

// Classification thresholds. These are deliberate heuristic choices;
// downstream expression correctness depends on the exact values, so they are
// overridable through Options but never changed silently.
const (
	// DefaultAlphaDigitRatio caps the alphabetic-to-digit character ratio a
	// value may have and still look numeric.
	DefaultAlphaDigitRatio = 0.3
	// DefaultMinNumericShare is the fraction of a column's distinct values
	// that must look numeric before a finding is emitted. Protects
	// identifier-like text columns from false positives.
	DefaultMinNumericShare = 0.5
	// DefaultMaxDistinctScan bounds how many distinct values are fetched
	// per column.
	DefaultMaxDistinctScan = 30
)

var currencySymbols = []string{"＄", "$", "€", "£", "¥"}

var (
	isoDatePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	numericNoiseRe  = regexp.MustCompile(`[Dd]esde\s*|[Ff]rom\s*|[$＄€£¥,\s]`)
	rangeSplitRe    = regexp.MustCompile(`\s*-\s*`)
	prefixRe        = regexp.MustCompile(`^(Desde|From|desde|from)\s+`)
	tightRangeRe    = regexp.MustCompile(`\d\s*-\s*[＄$€£¥]?\d`)
)

// Finding records one numeric-as-text column together with the detected
// formats and the two extraction expressions. ExprMin equals ExprMax
// whenever no range syntax was detected.
type Finding struct {
	Table        string
	Column       string
	FormatsFound []string
	ExprMin      string
	ExprMax      string
}

// Options adapts the classifier to a concrete SQL engine.
type Options struct {
	// Quote wraps a column identifier. Defaults to double quotes.
	Quote func(string) string
	// TableRef renders the table reference used in generated queries.
	// Defaults to Quote(table).
	TableRef func(string) string
	// CastType is the numeric type used in CAST expressions ("REAL" for
	// SQLite, "FLOAT64" for BigQuery). Defaults to "REAL".
	CastType string
	// TextTypes lists declared column types treated as text. Defaults to
	// TEXT and STRING.
	TextTypes []string

	AlphaDigitRatio float64
	MinNumericShare float64
	MaxDistinctScan int
}

func (o Options) withDefaults() Options {
	if o.Quote == nil {
		o.Quote = func(name string) string {
			return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
		}
	}
	if o.TableRef == nil {
		quote := o.Quote
		o.TableRef = func(table string) string { return quote(table) }
	}
	if o.CastType == "" {
		o.CastType = "REAL"
	}
	if len(o.TextTypes) == 0 {
		o.TextTypes = []string{"TEXT", "STRING"}
	}
	if o.AlphaDigitRatio == 0 {
		o.AlphaDigitRatio = DefaultAlphaDigitRatio
	}
	if o.MinNumericShare == 0 {
		o.MinNumericShare = DefaultMinNumericShare
	}
	if o.MaxDistinctScan == 0 {
		o.MaxDistinctScan = DefaultMaxDistinctScan
	}
	return o
}

// Classifier inspects distinct values of text columns through the backend
// contract and synthesizes cleaning expressions. It holds no state across
// calls.
type Classifier struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{opts: opts.withDefaults(), logger: logger}
}

// LooksNumeric reports whether value looks like a formatted number, price,
// or range under the default thresholds. ISO-dated strings are rejected.
func LooksNumeric(value string) bool {
	return Options{}.withDefaults().looksNumeric(value)
}

func (o Options) looksNumeric(value string) bool {
	if isoDatePrefixRe.MatchString(value) {
		return false
	}
	cleaned := numericNoiseRe.ReplaceAllString(value, "")
	firstPart := rangeSplitRe.Split(cleaned, 2)[0]
	if firstPart == "" {
		return false
	}
	var alphaCount, digitCount int
	for _, c := range firstPart {
		switch {
		case unicode.IsLetter(c):
			alphaCount++
		case unicode.IsDigit(c):
			digitCount++
		}
	}
	return digitCount > 0 && float64(alphaCount) <= float64(digitCount)*o.AlphaDigitRatio
}

// DetectNumericTextColumns scans every declared-text column of every table
// reachable through b and returns one Finding per qualifying column. A
// failed per-column query is logged and skipped; the sweep never aborts.
func (c *Classifier) DetectNumericTextColumns(ctx context.Context, b backend.Backend) ([]Finding, error) {
	schema, err := b.GetSchemaInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	var findings []Finding
	for _, table := range schema {
		for _, col := range table.Columns {
			if !c.isTextType(col.Type) {
				continue
			}

			values, ok := c.distinctValues(ctx, b, table.Name, col.Name)
			if !ok || len(values) == 0 {
				continue
			}

			numeric := 0
			for _, v := range values {
				if c.opts.looksNumeric(v) {
					numeric++
				}
			}
			if float64(numeric) < float64(len(values))*c.opts.MinNumericShare {
				continue
			}

			findings = append(findings, c.buildFinding(table.Name, col.Name, values))
		}
	}
	return findings, nil
}

func (c *Classifier) isTextType(declared string) bool {
	upper := strings.ToUpper(declared)
	for _, t := range c.opts.TextTypes {
		if upper == t {
			return true
		}
	}
	return false
}

func (c *Classifier) distinctValues(ctx context.Context, b backend.Backend, table, column string) ([]string, bool) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
		c.opts.Quote(column), c.opts.TableRef(table), c.opts.Quote(column), c.opts.MaxDistinctScan)

	res := b.RunQuery(ctx, query)
	if !res.Success {
		c.logger.Warn("distinct-value scan failed; skipping column",
			zap.String("table", table),
			zap.String("column", column),
			zap.String("error", res.Error),
		)
		return nil, false
	}

	var values []string
	for _, row := range res.Rows {
		if len(row) > 0 && row[0] != "" {
			values = append(values, row[0])
		}
	}
	return values, true
}

// buildFinding detects the formatting patterns present across the distinct
// values and composes the min/max extraction expressions.
func (c *Classifier) buildFinding(table, column string, values []string) Finding {
	prefixes := map[string]bool{}
	symbols := map[string]bool{}
	hasRangeSpaced := false
	hasRangeTight := false

	for _, v := range values {
		if m := prefixRe.FindString(v); m != "" {
			prefixes[m] = true
		}
		for _, sym := range currencySymbols {
			if strings.Contains(v, sym) {
				symbols[sym] = true
			}
		}
		if strings.Contains(v, " - ") {
			hasRangeSpaced = true
		} else if tightRangeRe.MatchString(v) {
			hasRangeTight = true
		}
	}

	// Longest prefix first so "Desde " is stripped before a shorter
	// overlapping prefix could corrupt it.
	prefixList := sortedKeys(prefixes)
	sort.SliceStable(prefixList, func(i, j int) bool {
		return len(prefixList[i]) > len(prefixList[j])
	})
	symbolList := sortedKeys(symbols)

	expr := c.opts.Quote(column)
	for _, p := range prefixList {
		expr = fmt.Sprintf("REPLACE(%s, '%s', '')", expr, p)
	}
	for _, s := range symbolList {
		expr = fmt.Sprintf("REPLACE(%s, '%s', '')", expr, s)
	}
	cleaned := fmt.Sprintf("TRIM(%s)", expr)

	var exprMin, exprMax string
	if hasRangeSpaced || hasRangeTight {
		// When both separator styles occur across rows, the spaced form
		// wins; tight-range rows fall through the CASE untouched.
		sep := "-"
		if hasRangeSpaced {
			sep = " - "
		}

		first := fmt.Sprintf(
			"CASE WHEN INSTR(%s, '%s') > 0 THEN TRIM(SUBSTR(%s, 1, INSTR(%s, '%s') - 1)) ELSE %s END",
			cleaned, sep, cleaned, cleaned, sep, cleaned)
		second := fmt.Sprintf(
			"CASE WHEN INSTR(%s, '%s') > 0 THEN TRIM(SUBSTR(%s, INSTR(%s, '%s') + %d)) ELSE %s END",
			cleaned, sep, cleaned, cleaned, sep, len(sep), cleaned)

		// Each half may still carry its own currency symbol.
		for _, s := range symbolList {
			first = fmt.Sprintf("REPLACE(%s, '%s', '')", first, s)
			second = fmt.Sprintf("REPLACE(%s, '%s', '')", second, s)
		}

		exprMin = fmt.Sprintf("CAST(REPLACE(%s, ',', '') AS %s)", first, c.opts.CastType)
		exprMax = fmt.Sprintf("CAST(REPLACE(%s, ',', '') AS %s)", second, c.opts.CastType)
	} else {
		exprMin = fmt.Sprintf("CAST(REPLACE(%s, ',', '') AS %s)", cleaned, c.opts.CastType)
		exprMax = exprMin
	}

	var formats []string
	if hasRangeSpaced {
		formats = append(formats, `range with " - " separator`)
	}
	if hasRangeTight {
		formats = append(formats, `range with "-" separator (no spaces)`)
	}
	if len(prefixList) > 0 {
		formats = append(formats, "prefixes: "+strings.Join(sortedKeys(prefixes), ", "))
	}
	if len(symbolList) > 0 {
		formats = append(formats, "currency symbols: "+strings.Join(symbolList, ", "))
	}
	if len(formats) == 0 {
		formats = append(formats, "plain formatted numbers with commas")
	}

	c.logger.Debug("numeric-as-text column detected",
		zap.String("table", table),
		zap.String("column", column),
		zap.Strings("formats", formats),
	)

	return Finding{
		Table:        table,
		Column:       column,
		FormatsFound: formats,
		ExprMin:      exprMin,
		ExprMax:      exprMax,
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
