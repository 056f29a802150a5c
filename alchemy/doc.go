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

// Package alchemy implements the parts of the Alchemy NFT API needed to
// download the metadata of every token in an NFT collection.
//
// Official documentation is at https://docs.alchemy.com/reference/nft-api-quickstart .
//
// The collection listing endpoint returns up to 100 tokens per page, and a
// nextToken to continue from when there are more. NFTIterator follows it
// transparently, optionally up to a maximum number of pages.
//
// All the requests go through Transport, which resolves endpoint names against
// the per-key base URL and retries GET requests failing with 5xx statuses.
// The client is injected into the context with UseClient.
package alchemy
