package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex is the gateway to the qdrant collection holding all chunk
// vectors. Points carry a payload of {document_id, ordinal, text}; document_id
// is the Document row's IndexRef, which is what retraction filters on.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
}

func DialQdrant(host string, port int, collection string) (*QdrantIndex, error) {
	conn, err := grpc.Dial(
		fmt.Sprintf("%s:%d", host, port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &QdrantIndex{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
	}, nil
}

func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

// EnsureCollection creates the collection if it does not exist yet. Safe to
// call again on every start; a create racing another process is fine because
// "already exists" counts as success.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	collections, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range collections.GetCollections() {
		if col.GetName() == q.collection {
			return nil
		}
	}

	createReq := &qdrantclient.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	}
	if _, err := q.collections.Create(ctx, createReq); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Upsert writes one point per chunk under the given document ref. Waits for
// the write so a query right after upload already sees the document.
func (q *QdrantIndex) Upsert(ctx context.Context, ref string, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}

	points := make([]*qdrantclient.PointStruct, 0, len(chunks))
	for i := range chunks {
		points = append(points, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{
					Uuid: uuid.New().String(),
				},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"document_id": {Kind: &qdrantclient.Value_StringValue{StringValue: ref}},
				"ordinal":     {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(chunks[i].Ordinal)}},
				"text":        {Kind: &qdrantclient.Value_StringValue{StringValue: chunks[i].Text}},
			},
		})
	}

	wait := true
	_, err := q.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Search returns the top matches for the vector, highest score first (qdrant's
// own ordering).
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	searchReq := &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{"document_id", "ordinal", "text"},
				},
			},
		},
	}

	searchResp, err := q.points.Search(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResp.GetResult()))
	for _, point := range searchResp.GetResult() {
		r := SearchResult{Score: point.GetScore()}
		if v, ok := point.Payload["document_id"]; ok {
			r.DocumentRef = v.GetStringValue()
		}
		if v, ok := point.Payload["ordinal"]; ok {
			r.Ordinal = int(v.GetIntegerValue())
		}
		if v, ok := point.Payload["text"]; ok {
			r.Text = v.GetStringValue()
		}
		results = append(results, r)
	}
	return results, nil
}

// DeleteByDocument removes every point whose payload carries the document ref.
func (q *QdrantIndex) DeleteByDocument(ctx context.Context, ref string) error {
	wait := true
	_, err := q.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{
				Filter: &qdrantclient.Filter{
					Must: []*qdrantclient.Condition{
						{
							ConditionOneOf: &qdrantclient.Condition_Field{
								Field: &qdrantclient.FieldCondition{
									Key: "document_id",
									Match: &qdrantclient.Match{
										MatchValue: &qdrantclient.Match_Keyword{Keyword: ref},
									},
								},
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}
