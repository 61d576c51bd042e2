package rag

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type QdrantStore struct {
	client *qdrant.Client
}

type QdrantCollection struct {
	client *qdrant.Client
	name   string
}

func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	if host == "" {
		host = os.Getenv("QDRANT_URL")
	}
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port, _ = strconv.Atoi(os.Getenv("QDRANT_PORT"))
	}
	if port == 0 {
		port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &QdrantStore{client: client}, nil
}

// EnsureCollection returns a handle for name, creating the collection
// when it does not exist yet. "Already exists" is the steady-state path
// for re-querying a document, never an error.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, vectorSize int) (collection, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, classifyStoreError("check collection", err)
	}
	if !exists {
		if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(vectorSize),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		}); err != nil {
			return nil, classifyStoreError("create collection", err)
		}
	}
	return &QdrantCollection{client: s.client, name: name}, nil
}

func (s *QdrantStore) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, classifyStoreError("check collection", err)
	}
	return exists, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (c *QdrantCollection) Name() string { return c.name }

func (c *QdrantCollection) Upsert(ctx context.Context, docs []VectorDoc) error {
	pts := make([]*qdrant.PointStruct, len(docs))

	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}

		payload := map[string]any{
			"text": d.Content,
		}
		for k, v := range d.Metadata {
			payload[k] = v
		}

		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(d.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Points:         pts,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return classifyStoreError("upsert", err)
	}
	return nil
}

func (c *QdrantCollection) Query(ctx context.Context, vector []float32, k int) ([]VectorDoc, error) {
	limit := uint64(k)
	resp, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classifyStoreError("query", err)
	}

	var out []VectorDoc

	for _, r := range resp {
		md := make(map[string]any)
		for key, v := range r.Payload {
			md[key] = convertQdrantValue(v)
		}

		content := ""
		if val, ok := md["text"]; ok {
			content = fmt.Sprintf("%v", val)
			delete(md, "text")
		}

		var id string
		if r.Id != nil {
			switch x := r.Id.PointIdOptions.(type) {
			case *qdrant.PointId_Uuid:
				id = x.Uuid
			case *qdrant.PointId_Num:
				id = fmt.Sprintf("%d", x.Num)
			}
		}

		out = append(out, VectorDoc{
			ID:       id,
			Content:  content,
			Metadata: md,
			Score:    r.Score,
		})
	}

	return out, nil
}

func (c *QdrantCollection) Count(ctx context.Context) (uint64, error) {
	count, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classifyStoreError("count", err)
	}
	return count, nil
}

// classifyStoreError separates transport/availability failures, which a
// caller may retry, from logical errors, which it must not.
func classifyStoreError(op string, err error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
			return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}

func convertQdrantValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {

	case *qdrant.Value_BoolValue:
		return val.BoolValue

	case *qdrant.Value_IntegerValue:
		return val.IntegerValue

	case *qdrant.Value_DoubleValue:
		return val.DoubleValue

	case *qdrant.Value_StringValue:
		return val.StringValue

	case *qdrant.Value_NullValue:
		return nil

	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, lv := range val.ListValue.Values {
			out[i] = convertQdrantValue(lv)
		}
		return out

	case *qdrant.Value_StructValue:
		out := make(map[string]any)
		for k, nv := range val.StructValue.Fields {
			out[k] = convertQdrantValue(nv)
		}
		return out
	}

	return nil
}
