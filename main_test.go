package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bcdannyboy/optionlab/chains"
	"github.com/bcdannyboy/optionlab/config"
	"github.com/bcdannyboy/optionlab/positions"
	"github.com/bcdannyboy/optionlab/probability"
	"github.com/shopspring/decimal"
)

func TestParseSpreadKind(t *testing.T) {
	tests := []struct {
		in      string
		want    positions.SpreadKind
		wantErr bool
	}{
		{"bull-put", positions.BullPut, false},
		{"bear-call", positions.BearCall, false},
		{"iron-condor", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSpreadKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChainParamsFromDefaults(t *testing.T) {
	params, err := chainParams(config.Default().Chain)
	if err != nil {
		t.Fatal(err)
	}
	if err := params.Validate(); err != nil {
		t.Fatalf("default chain config does not validate: %v", err)
	}

	bad := config.Default().Chain
	bad.Underlying = -1
	if _, err := chainParams(bad); err == nil {
		t.Error("negative underlying accepted")
	}
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spreads.json")
	if err := saveReport(context.Background(), path, probability.Merton, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"model": "merton"`) {
		t.Errorf("report = %s", data)
	}
}

func TestSpreadReportPerContract(t *testing.T) {
	params, err := chainParams(config.Default().Chain)
	if err != nil {
		t.Fatal(err)
	}
	chain, err := chains.Build(params, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	spreads, err := positions.FindCreditSpreads(chain, positions.BullPut, decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if len(spreads) == 0 {
		t.Fatal("no bull put spreads in the default chain")
	}
	sp := spreads[0]
	r := newSpreadReport(chain, sp, probability.Analysis{})

	size := params.ContractSize.Decimal()
	if r.ContractSize != number(size) {
		t.Errorf("contract size = %s", r.ContractSize)
	}
	if want := number(sp.Credit().Mul(size)); r.CreditPerContract != want {
		t.Errorf("credit per contract = %s, want %s", r.CreditPerContract, want)
	}
	if want := number(sp.MaxLoss().Mul(size)); r.MaxLossPerContract != want {
		t.Errorf("max loss per contract = %s, want %s", r.MaxLossPerContract, want)
	}
}
