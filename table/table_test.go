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

package table

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func testRecord(kv ...string) *Record {
	r := NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func TestTable(t *testing.T) {
	t.Parallel()

	Convey("Record methods work", t, func() {
		r := testRecord("token_id", "26", "image", "ipfs://x", "color", "red")

		Convey("keys keep insertion order", func() {
			So(r.Keys(), ShouldResemble, []string{"token_id", "image", "color"})
			So(r.Len(), ShouldEqual, 3)
		})

		Convey("later value wins, position stays", func() {
			r.Set("token_id", "27")
			r.Set("color", "blue")
			So(r.Keys(), ShouldResemble, []string{"token_id", "image", "color"})
			v, ok := r.Get("color")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "blue")
			v, _ = r.Get("token_id")
			So(v, ShouldEqual, "27")
		})

		Convey("Keys returns a copy", func() {
			keys := r.Keys()
			keys[0] = "junk"
			So(r.Keys()[0], ShouldEqual, "token_id")
		})

		Convey("Values fills in missing columns", func() {
			So(r.Values([]string{"color", "size", "token_id"}), ShouldResemble,
				[]string{"red", "", "26"})
		})
	})

	Convey("Table methods work", t, func() {
		t := NewTable("token_id", "image")
		t.AddRow(
			testRecord("token_id", "1", "image", "a.png", "color", "red"),
			testRecord("token_id", "2", "image", "b.png", "size", "big", "color", "blue"),
		)

		Convey("header is the union of keys", func() {
			So(t.Header, ShouldResemble, []string{"token_id", "image", "color", "size"})
			So(len(t.Rows), ShouldEqual, 2)
		})

		Convey("headerless table learns columns from rows", func() {
			t2 := NewTable()
			t2.AddRow(testRecord("b", "1"), testRecord("a", "2", "b", "3"))
			So(t2.Header, ShouldResemble, []string{"b", "a"})
		})

		Convey("WriteCSV", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
token_id,image,color,size
1,a.png,red,
2,b.png,blue,big
`)
			})

			Convey("Limited rows, no header", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{Rows: 1, NoHeader: true}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
1,a.png,red,
`)
			})

			Convey("Quotes values with commas", func() {
				t2 := NewTable()
				t2.AddRow(testRecord("name", "Foo, Bar"))
				var buf bytes.Buffer
				So(t2.WriteCSV(&buf, Params{}), ShouldBeNil)
				So(buf.String(), ShouldEqual, "name\n\"Foo, Bar\"\n")
			})
		})

		Convey("WriteText", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
token_id | image | color | size
-------- | ----- | ----- | ----
       1 | a.png |   red |     
       2 | b.png |  blue |  big
`)
			})

			Convey("Limited rows and width, no header", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{Rows: 1, NoHeader: true, MaxColWidth: 4}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
1 | a... | red | 
`)
			})

			Convey("Rejects small MaxColWidth", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{MaxColWidth: 3}), ShouldNotBeNil)
			})
		})
	})
}
