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
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const testContract = "0xed5af388653567af2f388e6224dc7c4b3241c544"

func rawNFT(tokenID, metadata string) *NFT {
	n := NFT{Contract: Contract{Address: testContract}, ID: TokenID{TokenID: tokenID}}
	if metadata != "" {
		n.Metadata = json.RawMessage(metadata)
	}
	return &n
}

func TestValidate(t *testing.T) {
	t.Parallel()

	Convey("Validate rejects incomplete records", t, func() {
		check := func(n *NFT, reason Reason) {
			_, err := n.Validate()
			So(err, ShouldNotBeNil)
			verr, ok := err.(*ValidationError)
			So(ok, ShouldBeTrue)
			So(verr.Reason, ShouldEqual, reason)
			So(verr.Contract, ShouldEqual, testContract)
			So(verr.TokenID, ShouldEqual, "0x1a")
		}

		Convey("AssetNotFound", func() {
			check(rawNFT("0x1a", ""), AssetNotFound)
			check(rawNFT("0x1a", "null"), AssetNotFound)
			check(rawNFT("0x1a", "{}"), AssetNotFound)
			check(rawNFT("0x1a", ` "" `), AssetNotFound)
			_, err := rawNFT("0x1a", "{}").Validate()
			So(err.Error(), ShouldEqual, "Token "+testContract+":0x1a not found!")
		})

		Convey("NoAttribute", func() {
			check(rawNFT("0x1a", `{"image": "ipfs://a"}`), NoAttribute)
			check(rawNFT("0x1a", `{"image": "ipfs://a", "attributes": []}`), NoAttribute)
			_, err := rawNFT("0x1a", `{"image": "ipfs://a"}`).Validate()
			So(err.Error(), ShouldEqual, "Token "+testContract+":0x1a has no attribute!")
		})

		Convey("NoImage", func() {
			check(rawNFT("0x1a", `{"attributes": [{"trait_type": "a", "value": "b"}]}`), NoImage)
			check(rawNFT("0x1a",
				`{"image": "", "attributes": [{"trait_type": "a", "value": "b"}]}`), NoImage)
			_, err := rawNFT("0x1a", `{"attributes": [{"trait_type": "a", "value": "b"}]}`).Validate()
			So(err.Error(), ShouldEqual, "Token "+testContract+":0x1a has no image!")
		})

		Convey("attributes are checked before the image", func() {
			check(rawNFT("0x1a", `{"name": "no image, no attributes"}`), NoAttribute)
		})
	})

	Convey("Validate flattens valid records", t, func() {
		Convey("leading columns and trait order", func() {
			n := TestNFT(testContract, "0x1a", "ipfs://img",
				Trait{"color", "red"}, Trait{"size", "big"})
			r, err := n.Validate()
			So(err, ShouldBeNil)
			So(r.Keys(), ShouldResemble, []string{"token_id", "image", "color", "size"})
			So(r.Values(r.Keys()), ShouldResemble, []string{"26", "ipfs://img", "red", "big"})
		})

		Convey("duplicate trait keeps its position with the later value", func() {
			n := TestNFT(testContract, "0x1", "img",
				Trait{"color", "red"}, Trait{"size", "big"}, Trait{"color", "blue"})
			r, err := n.Validate()
			So(err, ShouldBeNil)
			So(r.Keys(), ShouldResemble, []string{"token_id", "image", "color", "size"})
			v, _ := r.Get("color")
			So(v, ShouldEqual, "blue")
		})

		Convey("trait named like a leading column overwrites it", func() {
			n := TestNFT(testContract, "0x1", "img", Trait{"image", "other"})
			r, err := n.Validate()
			So(err, ShouldBeNil)
			So(r.Keys(), ShouldResemble, []string{"token_id", "image"})
			v, _ := r.Get("image")
			So(v, ShouldEqual, "other")
		})

		Convey("non-string trait values", func() {
			n := rawNFT("0xff", `{"image": "img", "attributes": [
				{"trait_type": "level", "value": 7},
				{"trait_type": "speed", "value": 1.50},
				{"trait_type": "rare", "value": true},
				{"trait_type": "none", "value": null},
				{"trait_type": "list", "value": [1, "a"]}]}`)
			r, err := n.Validate()
			So(err, ShouldBeNil)
			So(r.Values(r.Keys()), ShouldResemble,
				[]string{"255", "img", "7", "1.50", "true", "", `[1,"a"]`})
		})

		Convey("malformed token ID is an error", func() {
			n := TestNFT(testContract, "0xZZ", "img", Trait{"a", "b"})
			_, err := n.Validate()
			So(err, ShouldNotBeNil)
			_, ok := err.(*ValidationError)
			So(ok, ShouldBeFalse)
		})

		Convey("malformed metadata is an error", func() {
			_, err := rawNFT("0x1", `{"image": 5}`).Validate()
			So(err, ShouldNotBeNil)
			_, ok := err.(*ValidationError)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("DecimalTokenID", t, func() {
		id, err := DecimalTokenID("0x1a")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "26")

		id, err = DecimalTokenID("1A")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "26")

		id, err = DecimalTokenID(
			"0x0000000000000000000000000000000000000000000000000000000000000000")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "0")

		id, err = DecimalTokenID(
			"0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
		So(err, ShouldBeNil)
		So(id, ShouldEqual,
			"115792089237316195423570985008687907853269984665640564039457584007913129639935")

		_, err = DecimalTokenID("")
		So(err, ShouldNotBeNil)
		_, err = DecimalTokenID("0x")
		So(err, ShouldNotBeNil)
	})

	Convey("Reason strings", t, func() {
		So(AssetNotFound.String(), ShouldEqual, "AssetNotFound")
		So(NoAttribute.String(), ShouldEqual, "NoAttribute")
		So(NoImage.String(), ShouldEqual, "NoImage")
		So(Reason(0).String(), ShouldEqual, "Reason(0)")
	})
}
