// Copyright 2025 Poiesic Systems
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


package storage

import (
	"github.com/poiesic/faqit/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalKnowledgeEntry serializes a KnowledgeEntry to bytes.
func MarshalKnowledgeEntry(entry *core.KnowledgeEntry) []byte {
	buf := make([]byte, core.KnowledgeEntryMUS.Size(*entry))
	core.KnowledgeEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalKnowledgeEntry deserializes a KnowledgeEntry from bytes.
func UnmarshalKnowledgeEntry(data []byte) (*core.KnowledgeEntry, error) {
	entry, _, err := core.KnowledgeEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalSearchQueryLog serializes a SearchQueryLog to bytes.
func MarshalSearchQueryLog(log *core.SearchQueryLog) []byte {
	buf := make([]byte, core.SearchQueryLogMUS.Size(*log))
	core.SearchQueryLogMUS.Marshal(*log, buf)
	return buf
}

// UnmarshalSearchQueryLog deserializes a SearchQueryLog from bytes.
func UnmarshalSearchQueryLog(data []byte) (*core.SearchQueryLog, error) {
	log, _, err := core.SearchQueryLogMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// MarshalRunErrors serializes a slice of RunErrors to bytes.
func MarshalRunErrors(errors []core.RunError) []byte {
	buf := make([]byte, core.RunErrorsMUS.Size(errors))
	core.RunErrorsMUS.Marshal(errors, buf)
	return buf
}

// UnmarshalRunErrors deserializes a slice of RunErrors from bytes.
func UnmarshalRunErrors(data []byte) ([]core.RunError, error) {
	errors, _, err := core.RunErrorsMUS.Unmarshal(data)
	return errors, err
}

// MarshalIndexRun serializes an IndexRun to bytes.
func MarshalIndexRun(run *core.IndexRun) []byte {
	buf := make([]byte, core.IndexRunMUS.Size(*run))
	core.IndexRunMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalIndexRun deserializes an IndexRun from bytes.
func UnmarshalIndexRun(data []byte) (*core.IndexRun, error) {
	run, _, err := core.IndexRunMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
