package chains

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/fsutil"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/bcdannyboy/optionlab/positive"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xhhuango/json"
)

type chainJSON struct {
	Symbol          string       `json:"symbol"`
	UnderlyingPrice json.Number  `json:"underlying_price"`
	Expiration      string       `json:"expiration"`
	RiskFreeRate    *json.Number `json:"risk_free_rate"`
	DividendYield   *json.Number `json:"dividend_yield"`
	Rows            []rowJSON    `json:"rows"`
}

type rowJSON struct {
	Strike            json.Number  `json:"strike"`
	CallBid           *json.Number `json:"call_bid"`
	CallAsk           *json.Number `json:"call_ask"`
	PutBid            *json.Number `json:"put_bid"`
	PutAsk            *json.Number `json:"put_ask"`
	ImpliedVolatility *json.Number `json:"implied_volatility"`
	DeltaCall         *json.Number `json:"delta_call"`
	DeltaPut          *json.Number `json:"delta_put"`
	Gamma             *json.Number `json:"gamma"`
	Volume            *uint64      `json:"volume"`
	OpenInterest      *uint64      `json:"open_interest"`
}

// csvRow keeps every column as text so an empty field reads as unknown.
type csvRow struct {
	Strike            string `csv:"strike"`
	CallBid           string `csv:"call_bid"`
	CallAsk           string `csv:"call_ask"`
	PutBid            string `csv:"put_bid"`
	PutAsk            string `csv:"put_ask"`
	ImpliedVolatility string `csv:"implied_volatility"`
	DeltaCall         string `csv:"delta_call"`
	DeltaPut          string `csv:"delta_put"`
	Gamma             string `csv:"gamma"`
	Volume            string `csv:"volume"`
	OpenInterest      string `csv:"open_interest"`
}

func number(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := json.Number(d.Decimal.String())
	return &n
}

func fromNumber(n *json.Number) (decimal.NullDecimal, error) {
	if n == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return known(d), nil
}

func text(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func fromText(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return known(d), nil
}

func countText(c *uint64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatUint(*c, 10)
}

func fromCountText(s string) (*uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func strikeFrom(s string) (positive.Positive, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return positive.ZERO, err
	}
	return positive.New(d)
}

func (c *OptionChain) toJSON() chainJSON {
	out := chainJSON{
		Symbol:          c.Symbol,
		UnderlyingPrice: json.Number(c.UnderlyingPrice.String()),
		Expiration:      c.Expiration,
		RiskFreeRate:    number(c.RiskFreeRate),
		DividendYield:   number(c.DividendYield),
		Rows:            make([]rowJSON, len(c.rows)),
	}
	for i, r := range c.rows {
		out.Rows[i] = rowJSON{
			Strike:            json.Number(r.Strike.String()),
			CallBid:           number(r.CallBid),
			CallAsk:           number(r.CallAsk),
			PutBid:            number(r.PutBid),
			PutAsk:            number(r.PutAsk),
			ImpliedVolatility: number(r.ImpliedVolatility),
			DeltaCall:         number(r.DeltaCall),
			DeltaPut:          number(r.DeltaPut),
			Gamma:             number(r.Gamma),
			Volume:            r.Volume,
			OpenInterest:      r.OpenInterest,
		}
	}
	return out
}

func (cj chainJSON) chain(now time.Time) (*OptionChain, error) {
	underlying, err := strikeFrom(cj.UnderlyingPrice.String())
	if err != nil {
		return nil, fmt.Errorf("underlying_price: %w", err)
	}
	c := New(cj.Symbol, underlying, cj.Expiration, daysUntil(cj.Expiration, now))
	if c.RiskFreeRate, err = fromNumber(cj.RiskFreeRate); err != nil {
		return nil, fmt.Errorf("risk_free_rate: %w", err)
	}
	if c.DividendYield, err = fromNumber(cj.DividendYield); err != nil {
		return nil, fmt.Errorf("dividend_yield: %w", err)
	}
	for i, rj := range cj.Rows {
		row := OptionData{Volume: rj.Volume, OpenInterest: rj.OpenInterest}
		if row.Strike, err = strikeFrom(rj.Strike.String()); err != nil {
			return nil, fmt.Errorf("row %d strike: %w", i, err)
		}
		fields := []struct {
			dst *decimal.NullDecimal
			src *json.Number
		}{
			{&row.CallBid, rj.CallBid}, {&row.CallAsk, rj.CallAsk},
			{&row.PutBid, rj.PutBid}, {&row.PutAsk, rj.PutAsk},
			{&row.ImpliedVolatility, rj.ImpliedVolatility},
			{&row.DeltaCall, rj.DeltaCall}, {&row.DeltaPut, rj.DeltaPut},
			{&row.Gamma, rj.Gamma},
		}
		for _, f := range fields {
			if *f.dst, err = fromNumber(f.src); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		if err := c.AddOption(row); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *OptionChain) toCSV() []*csvRow {
	out := make([]*csvRow, len(c.rows))
	for i, r := range c.rows {
		out[i] = &csvRow{
			Strike:            r.Strike.String(),
			CallBid:           text(r.CallBid),
			CallAsk:           text(r.CallAsk),
			PutBid:            text(r.PutBid),
			PutAsk:            text(r.PutAsk),
			ImpliedVolatility: text(r.ImpliedVolatility),
			DeltaCall:         text(r.DeltaCall),
			DeltaPut:          text(r.DeltaPut),
			Gamma:             text(r.Gamma),
			Volume:            countText(r.Volume),
			OpenInterest:      countText(r.OpenInterest),
		}
	}
	return out
}

func (r *csvRow) optionData() (OptionData, error) {
	var (
		row OptionData
		err error
	)
	if row.Strike, err = strikeFrom(r.Strike); err != nil {
		return row, fmt.Errorf("strike: %w", err)
	}
	fields := []struct {
		dst *decimal.NullDecimal
		raw string
	}{
		{&row.CallBid, r.CallBid}, {&row.CallAsk, r.CallAsk},
		{&row.PutBid, r.PutBid}, {&row.PutAsk, r.PutAsk},
		{&row.ImpliedVolatility, r.ImpliedVolatility},
		{&row.DeltaCall, r.DeltaCall}, {&row.DeltaPut, r.DeltaPut},
		{&row.Gamma, r.Gamma},
	}
	for _, f := range fields {
		if *f.dst, err = fromText(f.raw); err != nil {
			return row, err
		}
	}
	if row.Volume, err = fromCountText(r.Volume); err != nil {
		return row, fmt.Errorf("volume: %w", err)
	}
	if row.OpenInterest, err = fromCountText(r.OpenInterest); err != nil {
		return row, fmt.Errorf("open_interest: %w", err)
	}
	return row, nil
}

// FileName is <SYMBOL>-<UNDERLYING>-<EXPIRATION>.csv; LoadCSV reads the
// chain metadata back from it.
func (c *OptionChain) FileName() string {
	return fmt.Sprintf("%s-%s-%s.csv", c.Symbol, c.UnderlyingPrice, c.Expiration)
}

var fileNamePattern = regexp.MustCompile(`^(.+)-([0-9]+(?:\.[0-9]+)?)-([0-9]{4}-[0-9]{2}-[0-9]{2})\.csv$`)

func (c *OptionChain) SaveJSON(path string) error {
	return c.SaveJSONContext(context.Background(), path)
}

// SaveJSONContext writes the chain with every number as a JSON number and
// unknown values as null.
func (c *OptionChain) SaveJSONContext(ctx context.Context, path string) error {
	err := fsutil.WriteAtomic(ctx, "chains.SaveJSON", path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.toJSON())
	})
	if err != nil {
		return err
	}
	logger.Debug(ctx, "saved option chain", "path", path, "format", "json", "rows", len(c.rows))
	return nil
}

func LoadJSON(path string) (*OptionChain, error) {
	return LoadJSONContext(context.Background(), path)
}

// LoadJSONContext reads a chain written by SaveJSON. Rows may appear in any
// order; duplicate strikes are rejected.
func LoadJSONContext(ctx context.Context, path string) (*OptionChain, error) {
	const op = "chains.LoadJSON"
	data, err := fsutil.ReadFile(ctx, op, path)
	if err != nil {
		return nil, err
	}
	var cj chainJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&cj); err != nil {
		return nil, errs.IO(op, fmt.Errorf("%s: %w", path, err))
	}
	c, err := cj.chain(time.Now())
	if err != nil {
		if errs.KindOf(err) == errs.KindDegenerateGrid {
			return nil, err
		}
		return nil, errs.IO(op, fmt.Errorf("%s: %w", path, err))
	}
	logger.Debug(ctx, "loaded option chain", "path", path, "format", "json", "rows", c.Len())
	return c, nil
}

func (c *OptionChain) SaveCSV(path string) error {
	return c.SaveCSVContext(context.Background(), path)
}

// SaveCSVContext writes one row per strike; unknown values are empty fields.
func (c *OptionChain) SaveCSVContext(ctx context.Context, path string) error {
	rows := c.toCSV()
	err := fsutil.WriteAtomic(ctx, "chains.SaveCSV", path, func(w io.Writer) error {
		return gocsv.Marshal(&rows, w)
	})
	if err != nil {
		return err
	}
	logger.Debug(ctx, "saved option chain", "path", path, "format", "csv", "rows", len(rows))
	return nil
}

func LoadCSV(path string) (*OptionChain, error) {
	return LoadCSVContext(context.Background(), path)
}

// LoadCSVContext reads rows written by SaveCSV. Symbol, underlying and
// expiration come from a FileName-shaped base name and stay empty otherwise.
func LoadCSVContext(ctx context.Context, path string) (*OptionChain, error) {
	const op = "chains.LoadCSV"
	data, err := fsutil.ReadFile(ctx, op, path)
	if err != nil {
		return nil, err
	}
	var rows []*csvRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, errs.IO(op, fmt.Errorf("%s: %w", path, err))
	}

	c := &OptionChain{}
	if m := fileNamePattern.FindStringSubmatch(filepath.Base(path)); m != nil {
		c.Symbol = m[1]
		c.UnderlyingPrice, _ = strikeFrom(m[2])
		c.Expiration = m[3]
		c.days = daysUntil(m[3], time.Now())
	}
	for i, r := range rows {
		row, err := r.optionData()
		if err != nil {
			return nil, errs.IO(op, fmt.Errorf("%s line %d: %w", path, i+2, err))
		}
		if err := c.AddOption(row); err != nil {
			return nil, err
		}
	}
	logger.Debug(ctx, "loaded option chain", "path", path, "format", "csv", "rows", c.Len())
	return c, nil
}
