// Package qdrant provides a vector store adapter backed by a Qdrant server.
package qdrant

import (
	"context"
	"fmt"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 6334
	DefaultCollection = "documents"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Qdrant vector store.
type Config struct {
	// Host is the Qdrant server host (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection to query (default: documents).
	Collection string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// VectorStore queries a Qdrant collection for similar documents.
type VectorStore struct {
	conn       *grpc.ClientConn
	points     qdrantclient.PointsClient
	collection string
	timeout    time.Duration
}

// NewVectorStore connects to Qdrant and returns a vector store.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect to %s: %w", addr, err)
	}

	return &VectorStore{
		conn:       conn,
		points:     qdrantclient.NewPointsClient(conn),
		collection: cfg.Collection,
		timeout:    cfg.Timeout,
	}, nil
}

// Query returns the k documents most similar to the given vector,
// restricted to those matching the filter.
func (s *VectorStore) Query(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	searchReq := &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         buildFilter(filter),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{
				Enable: true,
			},
		},
		WithVectors: &qdrantclient.WithVectorsSelector{
			SelectorOptions: &qdrantclient.WithVectorsSelector_Enable{
				Enable: true,
			},
		},
	}

	searchResp, err := s.points.Search(ctx, searchReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: qdrant: %v", domain.ErrVectorStoreUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: qdrant: search: %v", domain.ErrVectorStoreUnavailable, err)
	}

	docs := make([]domain.Document, 0, len(searchResp.Result))
	for _, point := range searchResp.Result {
		docs = append(docs, pointToDocument(point))
	}
	return docs, nil
}

// buildFilter maps a domain filter to a Qdrant payload filter.
// All conditions must hold.
func buildFilter(filter domain.Filter) *qdrantclient.Filter {
	if len(filter.Conditions) == 0 {
		return nil
	}

	must := make([]*qdrantclient.Condition, 0, len(filter.Conditions))
	for _, cond := range filter.Conditions {
		var match *qdrantclient.Match
		if cond.Op == domain.FilterOpEq {
			match = &qdrantclient.Match{
				MatchValue: &qdrantclient.Match_Keyword{Keyword: cond.Values[0]},
			}
		} else {
			match = &qdrantclient.Match{
				MatchValue: &qdrantclient.Match_Keywords{
					Keywords: &qdrantclient.RepeatedStrings{Strings: cond.Values},
				},
			}
		}
		must = append(must, &qdrantclient.Condition{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key:   cond.Field,
					Match: match,
				},
			},
		})
	}
	return &qdrantclient.Filter{Must: must}
}

// pointToDocument converts a scored point into a document. The canonical
// fields come from well-known payload keys; the full payload is kept in Raw.
func pointToDocument(point *qdrantclient.ScoredPoint) domain.Document {
	raw := payloadToRaw(point.Payload)

	doc := domain.Document{
		ID:     pointID(point.GetId()),
		Vector: point.GetVectors().GetVector().GetData(),
		Raw:    raw,
	}
	if id, ok := raw["document_id"].(string); ok && id != "" {
		doc.ID = id
	}
	if title, ok := raw["title"].(string); ok {
		doc.Title = title
	}
	if content, ok := raw["content"].(string); ok {
		doc.Content = content
	}
	if src, ok := raw["source_type"].(string); ok {
		doc.SourceType = domain.SourceType(src)
	}
	return doc
}

// pointID renders a Qdrant point ID as a string.
func pointID(id *qdrantclient.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// payloadToRaw converts a Qdrant payload into plain Go values.
func payloadToRaw(payload map[string]*qdrantclient.Value) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	raw := make(map[string]any, len(payload))
	for key, val := range payload {
		raw[key] = valueToAny(val)
	}
	return raw
}

// valueToAny converts a single Qdrant payload value.
func valueToAny(val *qdrantclient.Value) any {
	if val == nil {
		return nil
	}
	switch kind := val.Kind.(type) {
	case *qdrantclient.Value_StringValue:
		return kind.StringValue
	case *qdrantclient.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrantclient.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrantclient.Value_BoolValue:
		return kind.BoolValue
	case *qdrantclient.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.Values))
		for _, item := range kind.ListValue.Values {
			items = append(items, valueToAny(item))
		}
		return items
	case *qdrantclient.Value_StructValue:
		fields := make(map[string]any, len(kind.StructValue.Fields))
		for name, field := range kind.StructValue.Fields {
			fields[name] = valueToAny(field)
		}
		return fields
	default:
		return nil
	}
}

// Close releases the gRPC connection.
func (s *VectorStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
