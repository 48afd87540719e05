package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for every persisted type. Field order is part
// of the storage format: append new fields at the end only.
var (
	IDMUS             = idMUS{}
	RunErrorMUS       = runErrorMUS{}
	KnowledgeEntryMUS = knowledgeEntryMUS{}
	SearchQueryLogMUS = searchQueryLogMUS{}
	IndexRunMUS       = indexRunMUS{}

	vectorMUS    = ord.NewSliceSer[float32](raw.Float32)
	RunErrorsMUS = ord.NewSliceSer[RunError](RunErrorMUS)
)

// Timestamps are stored as Unix microseconds; the zero time is stored as 0.

func marshalTime(t time.Time, bs []byte) int {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Marshal(v, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || v == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Size(v)
}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (s idMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type runErrorMUS struct{}

func (runErrorMUS) Marshal(e RunError, bs []byte) (n int) {
	n = IDMUS.Marshal(e.EntryId, bs)
	n += ord.String.Marshal(e.Message, bs[n:])
	return n
}

func (runErrorMUS) Unmarshal(bs []byte) (e RunError, n int, err error) {
	e.EntryId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	e.Message, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (runErrorMUS) Size(e RunError) int {
	return IDMUS.Size(e.EntryId) + ord.String.Size(e.Message)
}

func (s runErrorMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type knowledgeEntryMUS struct{}

func (knowledgeEntryMUS) Marshal(e KnowledgeEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(e.Id, bs)
	n += ord.String.Marshal(e.Question, bs[n:])
	n += ord.String.Marshal(e.Answer, bs[n:])
	n += ord.String.Marshal(e.Category, bs[n:])
	n += ord.Bool.Marshal(e.IsPublished, bs[n:])
	n += ord.Bool.Marshal(e.IsPinned, bs[n:])
	n += varint.Int64.Marshal(e.Views, bs[n:])
	n += varint.Int64.Marshal(e.HelpfulCount, bs[n:])
	n += varint.Int64.Marshal(e.UnhelpfulCount, bs[n:])
	n += varint.Int64.Marshal(e.ClickCount, bs[n:])
	n += varint.Int64.Marshal(e.SearchHits, bs[n:])
	n += vectorMUS.Marshal(e.Vector, bs[n:])
	n += ord.String.Marshal(e.EmbeddingModel, bs[n:])
	n += varint.Int.Marshal(e.EmbeddingDims, bs[n:])
	n += IDMUS.Marshal(e.EmbeddingHash, bs[n:])
	n += ord.Bool.Marshal(e.NeedsEmbeddingRefresh, bs[n:])
	n += marshalTime(e.EmbeddingGeneratedAt, bs[n:])
	n += marshalTime(e.InsertedAt, bs[n:])
	n += marshalTime(e.UpdatedAt, bs[n:])
	return n
}

func (knowledgeEntryMUS) Unmarshal(bs []byte) (e KnowledgeEntry, n int, err error) {
	var n1 int
	if e.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if e.Question, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Answer, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.IsPublished, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.IsPinned, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Views, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.HelpfulCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.UnhelpfulCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.ClickCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.SearchHits, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.EmbeddingDims, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.EmbeddingHash, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.NeedsEmbeddingRefresh, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.EmbeddingGeneratedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return e, n, nil
}

func (knowledgeEntryMUS) Size(e KnowledgeEntry) int {
	return IDMUS.Size(e.Id) +
		ord.String.Size(e.Question) +
		ord.String.Size(e.Answer) +
		ord.String.Size(e.Category) +
		ord.Bool.Size(e.IsPublished) +
		ord.Bool.Size(e.IsPinned) +
		varint.Int64.Size(e.Views) +
		varint.Int64.Size(e.HelpfulCount) +
		varint.Int64.Size(e.UnhelpfulCount) +
		varint.Int64.Size(e.ClickCount) +
		varint.Int64.Size(e.SearchHits) +
		vectorMUS.Size(e.Vector) +
		ord.String.Size(e.EmbeddingModel) +
		varint.Int.Size(e.EmbeddingDims) +
		IDMUS.Size(e.EmbeddingHash) +
		ord.Bool.Size(e.NeedsEmbeddingRefresh) +
		sizeTime(e.EmbeddingGeneratedAt) +
		sizeTime(e.InsertedAt) +
		sizeTime(e.UpdatedAt)
}

func (s knowledgeEntryMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type searchQueryLogMUS struct{}

func (searchQueryLogMUS) Marshal(l SearchQueryLog, bs []byte) (n int) {
	n = IDMUS.Marshal(l.Id, bs)
	n += ord.String.Marshal(l.Query, bs[n:])
	n += varint.Int.Marshal(l.ResultCount, bs[n:])
	n += IDMUS.Marshal(l.TopResultId, bs[n:])
	n += raw.Float32.Marshal(l.TopResultScore, bs[n:])
	n += varint.Int64.Marshal(l.ResponseTimeMs, bs[n:])
	n += varint.Int.Marshal(int(l.Method), bs[n:])
	n += ord.Bool.Marshal(l.FallbackUsed, bs[n:])
	n += IDMUS.Marshal(l.ClickedEntryId, bs[n:])
	n += varint.Int.Marshal(l.ClickedPosition, bs[n:])
	n += marshalTime(l.CreatedAt, bs[n:])
	return n
}

func (searchQueryLogMUS) Unmarshal(bs []byte) (l SearchQueryLog, n int, err error) {
	var n1 int
	if l.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if l.Query, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.ResultCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.TopResultId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.TopResultScore, n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.ResponseTimeMs, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	var method int
	if method, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	l.Method = SearchMethod(method)
	n += n1
	if l.FallbackUsed, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.ClickedEntryId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.ClickedPosition, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	if l.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return l, n + n1, err
	}
	n += n1
	return l, n, nil
}

func (searchQueryLogMUS) Size(l SearchQueryLog) int {
	return IDMUS.Size(l.Id) +
		ord.String.Size(l.Query) +
		varint.Int.Size(l.ResultCount) +
		IDMUS.Size(l.TopResultId) +
		raw.Float32.Size(l.TopResultScore) +
		varint.Int64.Size(l.ResponseTimeMs) +
		varint.Int.Size(int(l.Method)) +
		ord.Bool.Size(l.FallbackUsed) +
		IDMUS.Size(l.ClickedEntryId) +
		varint.Int.Size(l.ClickedPosition) +
		sizeTime(l.CreatedAt)
}

func (s searchQueryLogMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type indexRunMUS struct{}

func (indexRunMUS) Marshal(r IndexRun, bs []byte) (n int) {
	n = ord.String.Marshal(r.RunId, bs)
	n += varint.Int.Marshal(r.TotalEntries, bs[n:])
	n += varint.Int.Marshal(r.ProcessedEntries, bs[n:])
	n += varint.Int.Marshal(r.SuccessCount, bs[n:])
	n += varint.Int.Marshal(r.FailureCount, bs[n:])
	n += varint.Int64.Marshal(r.TokensUsed, bs[n:])
	n += IDMUS.Marshal(r.LastProcessedId, bs[n:])
	n += RunErrorsMUS.Marshal(r.Errors, bs[n:])
	n += ord.Bool.Marshal(r.Aborted, bs[n:])
	n += marshalTime(r.StartedAt, bs[n:])
	n += marshalTime(r.EndedAt, bs[n:])
	return n
}

func (indexRunMUS) Unmarshal(bs []byte) (r IndexRun, n int, err error) {
	var n1 int
	if r.RunId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.TotalEntries, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.ProcessedEntries, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.SuccessCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.FailureCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.TokensUsed, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.LastProcessedId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Errors, n1, err = RunErrorsMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Aborted, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.StartedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.EndedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (indexRunMUS) Size(r IndexRun) int {
	return ord.String.Size(r.RunId) +
		varint.Int.Size(r.TotalEntries) +
		varint.Int.Size(r.ProcessedEntries) +
		varint.Int.Size(r.SuccessCount) +
		varint.Int.Size(r.FailureCount) +
		varint.Int64.Size(r.TokensUsed) +
		IDMUS.Size(r.LastProcessedId) +
		RunErrorsMUS.Size(r.Errors) +
		ord.Bool.Size(r.Aborted) +
		sizeTime(r.StartedAt) +
		sizeTime(r.EndedAt)
}

func (s indexRunMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
