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

// Package collection downloads and flattens the metadata of all the tokens in
// an NFT collection into a seed table.
package collection

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/nftseed/alchemy"
	"github.com/stockparfait/nftseed/table"
)

// Policy for records which fail validation.
type Policy string

// Values of Policy.
const (
	Abort = Policy("abort") // the first invalid record fails the whole run
	Skip  = Policy("skip")  // invalid records are logged and left out
)

// Policies lists all the valid Policy values.
func Policies() []Policy {
	return []Policy{Abort, Skip}
}

// DefaultMaxPages is the default page limit for Collect.
const DefaultMaxPages = 10000

// Dataset of flattened NFT records of a single collection.
type Dataset struct {
	Policy   Policy
	MaxPages int // 0 = unlimited
	Records  []*table.Record
	Skipped  []*alchemy.ValidationError
	Pages    int
	Complete bool // all the pages were fetched
}

// NewDataset initializes an empty dataset with the default settings.
func NewDataset() *Dataset {
	return &Dataset{Policy: Abort, MaxPages: DefaultMaxPages}
}

// Collect fetches all the NFTs of the contract page by page, validates and
// flattens them. Any previously collected data is discarded. With the Skip
// policy, invalid records are added to Skipped; otherwise the first invalid
// record is returned as an error.
func (d *Dataset) Collect(ctx context.Context, contract string) error {
	d.Records = nil
	d.Skipped = nil
	d.Pages = 0
	d.Complete = false

	it := alchemy.NewNFTQuery(contract).MaxPages(d.MaxPages).Read(ctx)
	for {
		var nft alchemy.NFT
		ok, err := it.Next(&nft)
		if err != nil {
			return errors.Annotate(err, "failed to read NFTs of %s", contract)
		}
		if !ok {
			break
		}
		r, err := nft.Validate()
		if err != nil {
			verr, invalid := err.(*alchemy.ValidationError)
			if !invalid || d.Policy != Skip {
				return errors.Annotate(err, "failed to process NFT in page %d", it.Pages())
			}
			logging.Warningf(ctx, "skipping %s: %s", verr.Reason, verr.Error())
			d.Skipped = append(d.Skipped, verr)
		} else {
			d.Records = append(d.Records, r)
		}
		if it.PageDone() {
			logging.Infof(ctx, "%d nfts collected", len(d.Records))
		}
	}
	d.Pages = it.Pages()
	d.Complete = !it.Truncated()
	return nil
}

// Table converts the records to a table with token_id and image leading.
func (d *Dataset) Table() *table.Table {
	t := table.NewTable(alchemy.TokenIDColumn, alchemy.ImageColumn)
	t.AddRow(d.Records...)
	return t
}

// WriteCSV writes the records to the file in CSV format, creating its
// directory if necessary and replacing any existing file.
func (d *Dataset) WriteCSV(fileName string) (err error) {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return errors.Annotate(err, "failed to create directory for '%s'", fileName)
	}
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Annotate(cerr, "failed to close '%s'", fileName)
		}
	}()

	if err := d.Table().WriteCSV(f, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to write '%s'", fileName)
	}
	return nil
}
