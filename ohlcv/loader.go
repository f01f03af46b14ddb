// Package ohlcv loads candle history from zipped CSV archives.
package ohlcv

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// LoadZip reads every .csv entry of the archive at path. When from or to are
// set, candles outside [from, to] are dropped; both ends are inclusive and
// compared by calendar day.
func LoadZip(path string, from, to *time.Time) ([]Candle, error) {
	return LoadZipContext(context.Background(), path, from, to)
}

// LoadZipContext is LoadZip with cancellation checked between archive entries.
func LoadZipContext(ctx context.Context, path string, from, to *time.Time) ([]Candle, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.IO("ohlcv.LoadZip", err)
	}
	defer zr.Close()

	var candles []Candle
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, errs.IO("ohlcv.LoadZip", err)
		}
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		entry, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		candles = append(candles, entry...)
	}

	candles = filterByDate(candles, from, to)
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	logger.Debug(ctx, "loaded candles", "path", path, "count", len(candles))
	return candles, nil
}

func readEntry(f *zip.File) ([]Candle, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errs.IO("ohlcv.LoadZip", err)
	}
	defer rc.Close()

	var rows []*row
	if err := gocsv.Unmarshal(rc, &rows); err != nil {
		return nil, errs.IO("ohlcv.LoadZip", fmt.Errorf("%s: %w", f.Name, err))
	}

	candles := make([]Candle, 0, len(rows))
	for i, r := range rows {
		c, err := r.candle()
		if err != nil {
			return nil, errs.IO("ohlcv.LoadZip", fmt.Errorf("%s line %d: %w", f.Name, i+2, err))
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (r *row) candle() (Candle, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return Candle{}, err
	}
	var c Candle
	c.Date = date
	fields := []struct {
		dst *decimal.Decimal
		raw string
	}{{&c.Open, r.Open}, {&c.High, r.High}, {&c.Low, r.Low}, {&c.Close, r.Close}}
	for _, fld := range fields {
		v, err := decimal.NewFromString(strings.TrimSpace(fld.raw))
		if err != nil {
			return Candle{}, err
		}
		*fld.dst = v
	}
	if v := strings.TrimSpace(r.Volume); v != "" {
		// some feeds write volume as a float
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Candle{}, err
		}
		c.Volume = uint64(vol)
	}
	return c, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func filterByDate(candles []Candle, from, to *time.Time) []Candle {
	if from == nil && to == nil {
		return candles
	}
	out := candles[:0]
	for _, c := range candles {
		d := day(c.Date)
		if from != nil && d.Before(day(*from)) {
			continue
		}
		if to != nil && d.After(day(*to)) {
			continue
		}
		out = append(out, c)
	}
	return out
}
