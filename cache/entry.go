// Copyright 2025 Sifter Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/sifterlabs/sifter/core"
)

// Entry is one cached model response. Entries are content-addressed: the
// key is derived from the model name and the full prompt text, so any
// change to either yields a different key.
type Entry struct {
	Key       core.ID
	Model     string
	Response  string
	CreatedAt time.Time
}

// EntryMUS serializes entries in the MUS format. Timestamps round-trip
// with microsecond precision.
var EntryMUS = entryMUS{}

type entryMUS struct{}

func (entryMUS) Marshal(v Entry, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Key), bs)
	n += ord.String.Marshal(v.Model, bs[n:])
	n += ord.String.Marshal(v.Response, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return n
}

func (entryMUS) Unmarshal(bs []byte) (v Entry, n int, err error) {
	var (
		key      uint64
		unixmicr int64
		m        int
	)
	key, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Key = core.ID(key)

	v.Model, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}

	v.Response, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}

	unixmicr, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(unixmicr).UTC()
	return
}

func (entryMUS) Size(v Entry) (size int) {
	size = varint.Uint64.Size(uint64(v.Key))
	size += ord.String.Size(v.Model)
	size += ord.String.Size(v.Response)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	return size
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(entry *Entry) []byte {
	buf := make([]byte, EntryMUS.Size(*entry))
	EntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	entry, _, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
