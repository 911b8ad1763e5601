// Package report aggregates persisted call records into cost and
// usage views with rule-based anomaly detection.
package report

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-spend/internal/core/model"
	"github.com/penwyp/go-claude-spend/internal/sink"
	"github.com/penwyp/go-claude-spend/internal/util"
)

// DefaultLookback is the report window when the caller gives none.
const DefaultLookback = 7 * 24 * time.Hour

// Load reads all call records within the lookback window, oldest
// rotation slot first so records stay in append order. Missing files
// are an empty result, not an error; malformed lines are skipped.
func Load(path string, lookback time.Duration) ([]model.CallRecord, error) {
	cutoff := time.Now().Add(-lookback).Unix()

	var records []model.CallRecord
	for _, p := range []string{path + sink.OldSuffix, path} {
		recs, err := loadFile(p, cutoff)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func loadFile(path string, cutoff int64) ([]model.CallRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open record log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var records []model.CallRecord
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var rec model.CallRecord
		if err := sonic.Unmarshal(scanner.Bytes(), &rec); err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid record line %s:%d - %v", path, lineCount, err))
			continue
		}
		if rec.Timestamp < cutoff {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan record log: %w", err)
	}
	return records, nil
}
