// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/nftseed/alchemy"
	"github.com/stockparfait/nftseed/alchemy/collection"
	"github.com/stockparfait/nftseed/config"
	"github.com/stockparfait/nftseed/table"
	"golang.org/x/exp/slices"
)

type Flags struct {
	Config    string // default: config.yaml
	OutDir    string // default: seeds
	LogLevel  logging.Level
	OnInvalid string        // overrides collect.on_invalid when set
	MaxPages  int           // overrides collect.max_pages when >= 0
	Timeout   time.Duration // for the whole run; 0 = none
	Preview   int           // rows to print after writing
	Project   string        // the only positional argument
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("nft-seed", flag.ExitOnError)
	fs.StringVar(&flags.Config, "config", "config.yaml", "config file, YAML or TOML")
	fs.StringVar(&flags.OutDir, "out", "seeds", "directory for the output CSV files")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.OnInvalid, "on-invalid", "",
		"what to do with invalid NFT records: abort or skip (default: from config)")
	fs.IntVar(&flags.MaxPages, "max-pages", -1,
		"maximum number of pages to fetch, 0 = unlimited (default: from config)")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "time limit for the whole run")
	fs.IntVar(&flags.Preview, "preview", 10, "number of collected rows to print")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, errors.Reason("expected exactly one project name, got %d arguments", fs.NArg())
	}
	flags.Project = fs.Arg(0)
	if flags.OnInvalid != "" {
		if !slices.Contains(collection.Policies(), collection.Policy(flags.OnInvalid)) {
			return nil, errors.Reason("-on-invalid must be one of %v, got '%s'",
				collection.Policies(), flags.OnInvalid)
		}
	}
	if flags.Timeout < 0 {
		return nil, errors.Reason("-timeout must be >= 0")
	}
	return &flags, nil
}

// seedFile is the output path for the project.
func seedFile(outDir, project string) string {
	return filepath.Join(outDir, project+".csv")
}

func logContract(ctx context.Context, address string) int {
	info, err := alchemy.FetchContractMetadata(ctx, address)
	if err != nil {
		logging.Warningf(ctx, "failed to fetch contract metadata: %s", err.Error())
		return -1
	}
	m := info.Metadata
	logging.Infof(ctx, "collecting %s (%s, %s), total supply: %s",
		m.Name, m.Symbol, m.TokenType, m.TotalSupply)
	n, err := strconv.Atoi(m.TotalSupply)
	if err != nil {
		return -1
	}
	return n
}

func collect(ctx context.Context, flags *Flags, w io.Writer) error {
	conf, err := config.Load(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to load config")
	}
	project := conf.Project(flags.Project)
	if project == nil {
		logging.Warningf(ctx, "project not found in %s: %s", flags.Config, flags.Project)
		return nil
	}
	if flags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Timeout)
		defer cancel()
	}
	ctx, err = alchemy.UseClient(ctx, conf.Alchemy.APIKey, alchemy.TransportOptions{
		BackoffFactor: conf.Collect.Backoff(),
		Timeout:       conf.Collect.RequestTimeout(),
	})
	if err != nil {
		return errors.Annotate(err, "failed to create API client")
	}
	supply := logContract(ctx, project.Address)

	ds := collection.NewDataset()
	ds.Policy = conf.Collect.OnInvalid
	if flags.OnInvalid != "" {
		ds.Policy = collection.Policy(flags.OnInvalid)
	}
	ds.MaxPages = *conf.Collect.MaxPages
	if flags.MaxPages >= 0 {
		ds.MaxPages = flags.MaxPages
	}
	if err := ds.Collect(ctx, project.Address); err != nil {
		return errors.Annotate(err, "failed to collect project %s", project.Name)
	}
	if !ds.Complete {
		return errors.Reason("incomplete collection for %s: stopped after %d pages with %d NFTs",
			project.Name, ds.Pages, len(ds.Records))
	}
	if len(ds.Skipped) > 0 {
		logging.Warningf(ctx, "skipped %d invalid NFTs", len(ds.Skipped))
	}
	if supply >= 0 && supply != len(ds.Records)+len(ds.Skipped) {
		logging.Infof(ctx, "collected %d NFTs, contract reports total supply of %d",
			len(ds.Records)+len(ds.Skipped), supply)
	}

	fileName := seedFile(flags.OutDir, project.Name)
	if err := ds.WriteCSV(fileName); err != nil {
		return errors.Annotate(err, "failed to write seed file")
	}
	logging.Infof(ctx, "wrote %d rows to %s", len(ds.Records), fileName)
	if flags.Preview > 0 {
		p := table.Params{Rows: flags.Preview, MaxColWidth: 40}
		if err := ds.Table().WriteText(w, p); err != nil {
			return errors.Annotate(err, "failed to print preview")
		}
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := collect(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
