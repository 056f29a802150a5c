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

package alchemy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/nftseed/table"
)

// Column names which lead every flattened NFT record.
const (
	TokenIDColumn = "token_id"
	ImageColumn   = "image"
)

// Contract part of the NFT response.
type Contract struct {
	Address string `json:"address"`
}

// TokenMetadata part of the NFT response.
type TokenMetadata struct {
	TokenType string `json:"tokenType,omitempty"`
}

// TokenID identifies the token within its contract.
type TokenID struct {
	TokenID       string        `json:"tokenId"` // hexadecimal, e.g. "0x1a"
	TokenMetadata TokenMetadata `json:"tokenMetadata"`
}

// Trait is a single NFT attribute. Value is a string, json.Number, bool or
// nil as decoded from JSON.
type Trait struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Metadata of the token, as published by its contract.
type Metadata struct {
	Image      string  `json:"image"`
	Attributes []Trait `json:"attributes"`
}

// NFT is a single token record as returned by the NFT API. Metadata is kept
// raw, since the API returns anything from null or "" to a full object.
type NFT struct {
	Contract Contract        `json:"contract"`
	ID       TokenID         `json:"id"`
	Title    string          `json:"title,omitempty"`
	Metadata json.RawMessage `json:"metadata"`
}

// Reason for which an NFT record is rejected.
type Reason int

// Values of Reason.
const (
	AssetNotFound Reason = iota + 1
	NoAttribute
	NoImage
)

func (r Reason) String() string {
	switch r {
	case AssetNotFound:
		return "AssetNotFound"
	case NoAttribute:
		return "NoAttribute"
	case NoImage:
		return "NoImage"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// ValidationError is returned by NFT.Validate when a required part of the
// record is absent or empty.
type ValidationError struct {
	Reason   Reason
	Contract string
	TokenID  string // as in the response, hexadecimal
}

func (e *ValidationError) Error() string {
	token := e.Contract + ":" + e.TokenID
	switch e.Reason {
	case AssetNotFound:
		return "Token " + token + " not found!"
	case NoAttribute:
		return "Token " + token + " has no attribute!"
	case NoImage:
		return "Token " + token + " has no image!"
	}
	return fmt.Sprintf("Token %s is invalid: %s", token, e.Reason)
}

func (n *NFT) invalid(r Reason) *ValidationError {
	return &ValidationError{Reason: r, Contract: n.Contract.Address, TokenID: n.ID.TokenID}
}

// ParseMetadata decodes the raw metadata. It returns nil when the metadata is
// absent, null, an empty object, or anything other than an object.
func (n *NFT) ParseMetadata() (*Metadata, error) {
	raw := bytes.TrimSpace(n.Metadata)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Annotate(err, "failed to parse metadata of %s:%s",
			n.Contract.Address, n.ID.TokenID)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	var m Metadata
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Annotate(err, "failed to parse metadata of %s:%s",
			n.Contract.Address, n.ID.TokenID)
	}
	return &m, nil
}

// Validate checks that the NFT has metadata with attributes and an image, and
// flattens it into a Record: token_id (base 10), image, followed by one column
// per trait in the original order. A repeated trait name takes the later
// value. Missing parts are reported as *ValidationError, returned unwrapped.
func (n *NFT) Validate() (*table.Record, error) {
	m, err := n.ParseMetadata()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, n.invalid(AssetNotFound)
	}
	if len(m.Attributes) == 0 {
		return nil, n.invalid(NoAttribute)
	}
	if m.Image == "" {
		return nil, n.invalid(NoImage)
	}
	id, err := DecimalTokenID(n.ID.TokenID)
	if err != nil {
		return nil, errors.Annotate(err, "bad token of contract %s", n.Contract.Address)
	}
	r := table.NewRecord()
	r.Set(TokenIDColumn, id)
	r.Set(ImageColumn, m.Image)
	for _, t := range m.Attributes {
		r.Set(t.TraitType, TraitValue(t.Value))
	}
	return r, nil
}

// DecimalTokenID converts a hexadecimal token ID, with or without the 0x
// prefix, to its base 10 representation. Token IDs are 256-bit.
func DecimalTokenID(hex string) (string, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return "", errors.Reason("invalid hexadecimal token ID: '%s'", hex)
	}
	return n.String(), nil
}

// TraitValue renders a decoded JSON trait value as text. Numbers keep their
// JSON spelling, objects and arrays are rendered as compact JSON.
func TraitValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// TestNFT creates an NFT record with the given metadata. Empty image and
// traits are omitted from the metadata, and without both the metadata is null.
// For use in tests.
func TestNFT(contract, tokenID, image string, traits ...Trait) NFT {
	n := NFT{Contract: Contract{Address: contract}, ID: TokenID{TokenID: tokenID}}
	m := map[string]interface{}{}
	if image != "" {
		m["image"] = image
	}
	if len(traits) > 0 {
		m["attributes"] = traits
	}
	if len(m) > 0 {
		n.Metadata, _ = json.Marshal(m)
	}
	return n
}
