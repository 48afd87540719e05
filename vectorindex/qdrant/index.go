package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/vectorindex"
)

// Payload keys stored with every point.
const (
	payloadQuestion     = "question"
	payloadCategory     = "category"
	payloadHelpfulRatio = "helpful_ratio"
)

// Index is the sole owner of all Qdrant operations.
type Index struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dims        int
}

var _ vectorindex.Index = (*Index)(nil)

// New creates an Index connected to Qdrant at the given gRPC address.
// The collection name acts as the id namespace; dims is the fixed vector
// dimension the collection is created with.
func New(addr, collection string, dims int) (*Index, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: dial qdrant %s: %w", addr, err)
	}
	return &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		dims:        dims,
	}, nil
}

// Close closes the underlying gRPC connection.
func (x *Index) Close() error {
	return x.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist.
func (x *Index) EnsureCollection(ctx context.Context) error {
	list, err := x.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorindex: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == x.collection {
			return nil
		}
	}

	_, err = x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(x.dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: create collection %s: %w", x.collection, err)
	}
	return nil
}

// Upsert inserts or replaces a single record.
func (x *Index) Upsert(ctx context.Context, record vectorindex.Record) error {
	return x.UpsertBatch(ctx, []vectorindex.Record{record})
}

// UpsertBatch inserts or replaces multiple records in one call.
func (x *Index) UpsertBatch(ctx context.Context, records []vectorindex.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Num{Num: uint64(r.Id)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Vector},
				},
			},
			Payload: map[string]*pb.Value{
				payloadQuestion:     {Kind: &pb.Value_StringValue{StringValue: r.Metadata.Question}},
				payloadCategory:     {Kind: &pb.Value_StringValue{StringValue: r.Metadata.Category}},
				payloadHelpfulRatio: {Kind: &pb.Value_DoubleValue{DoubleValue: float64(r.Metadata.HelpfulRatio)}},
			},
		}
	}

	wait := true
	_, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert %d points: %w", len(records), err)
	}
	return nil
}

// Query performs k-NN similarity search with an optional score threshold.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]vectorindex.Match, error) {
	req := &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if minScore > 0 {
		req.ScoreThreshold = &minScore
	}

	resp, err := x.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	matches := make([]vectorindex.Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		matches[i] = vectorindex.Match{
			Id:    core.ID(r.GetId().GetNum()),
			Score: r.GetScore(),
			Metadata: vectorindex.Metadata{
				Question:     r.GetPayload()[payloadQuestion].GetStringValue(),
				Category:     r.GetPayload()[payloadCategory].GetStringValue(),
				HelpfulRatio: float32(r.GetPayload()[payloadHelpfulRatio].GetDoubleValue()),
			},
		}
	}
	return matches, nil
}

// Delete removes a record by id.
func (x *Index) Delete(ctx context.Context, id core.ID) error {
	return x.DeleteBatch(ctx, []core.ID{id})
}

// DeleteBatch removes multiple records by id.
func (x *Index) DeleteBatch(ctx context.Context, ids []core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	pointIds := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIds[i] = &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(id)}}
	}

	wait := true
	_, err := x.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIds},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: delete %d points: %w", len(ids), err)
	}
	return nil
}

// Stats returns the collection's point count and the configured dimension.
func (x *Index) Stats(ctx context.Context) (*vectorindex.Stats, error) {
	info, err := x.collections.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: x.collection,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: collection info %s: %w", x.collection, err)
	}

	return &vectorindex.Stats{
		VectorCount: info.GetResult().GetPointsCount(),
		Dimension:   x.dims,
	}, nil
}
