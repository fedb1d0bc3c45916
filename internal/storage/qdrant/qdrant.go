// ABOUTME: Vector store backed by a Qdrant server over gRPC
// ABOUTME: Chunk metadata travels as point payload, filtering happens server side
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/edurag/internal/models"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Payload keys
const (
	keySourceFile  = "source_file"
	keyPage        = "page"
	keyChunkIndex  = "chunk_index"
	keyContentType = "content_type"
	keyWordCount   = "word_count"
	keyTopic       = "topic"
	keyText        = "text"
	keyIngestedAt  = "ingested_at"
)

// scrollPageSize bounds each scroll request when listing sources
const scrollPageSize = 256

// Config holds connection settings
type Config struct {
	Addr       string
	Collection string
	Dimension  int
}

// Store implements the vector store on a Qdrant collection
type Store struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
	dimension   int
}

// Connect dials Qdrant and creates the collection if it does not exist
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial qdrant at %s: %w", cfg.Addr, err)
	}

	s := &Store{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  cfg.Collection,
		dimension:   cfg.Dimension,
	}

	if err := s.ensureCollection(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	_, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: s.collection})
	if err == nil {
		return nil
	}
	// only create collection if it's not found
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to get collection %s: %w", s.collection, err)
	}

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(s.dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes chunks as points keyed by chunk id
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %s: %w", c.ID, err)
		}
		points[i] = toPoint(c)
	}

	wait := true
	resp, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	if st := resp.GetResult().GetStatus(); st != qdrant.UpdateStatus_Acknowledged && st != qdrant.UpdateStatus_Completed {
		return fmt.Errorf("upsert not applied, status: %s", st)
	}
	return nil
}

// Query searches the collection by cosine similarity. Matches carry payload
// only; stored vectors are not fetched back.
func (s *Store) Query(ctx context.Context, vector []float64, topK int, filter models.SearchFilter) ([]models.VectorMatch, error) {
	if topK <= 0 {
		return []models.VectorMatch{}, nil
	}

	resp, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         toFloat32(vector),
		Filter:         sourceFilter(filter.SourceFile),
		Limit:          uint64(topK),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	matches := make([]models.VectorMatch, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		matches = append(matches, models.VectorMatch{
			Chunk:    fromPayload(p.GetId().GetUuid(), p.GetPayload()),
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return matches, nil
}

// DeleteBySource removes every point whose payload names the source file
func (s *Store) DeleteBySource(ctx context.Context, sourceFile string) (int, error) {
	n, err := s.count(ctx, sourceFilter(sourceFile))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	wait := true
	_, err = s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(sourceFilter(sourceFile)),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete points for %s: %w", sourceFile, err)
	}
	return n, nil
}

// Count returns the exact number of points in the collection
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.count(ctx, nil)
}

func (s *Store) count(ctx context.Context, filter *qdrant.Filter) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Stats scrolls the collection reading only the source payload field
func (s *Store) Stats(ctx context.Context) (models.KnowledgeStats, error) {
	perSource := make(map[string]int)
	limit := uint32(scrollPageSize)
	var offset *qdrant.PointId

	for {
		resp, err := s.points.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Offset:         offset,
			Limit:          &limit,
			WithPayload: &qdrant.WithPayloadSelector{
				SelectorOptions: &qdrant.WithPayloadSelector_Include{
					Include: &qdrant.PayloadIncludeSelector{Fields: []string{keySourceFile}},
				},
			},
		})
		if err != nil {
			return models.KnowledgeStats{}, fmt.Errorf("failed to scroll points: %w", err)
		}

		for _, p := range resp.GetResult() {
			perSource[p.GetPayload()[keySourceFile].GetStringValue()]++
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return models.NewKnowledgeStats(perSource), nil
}

// Clear drops and recreates the collection
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: s.collection})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
	}
	return s.ensureCollection(ctx)
}

// Close closes the gRPC connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func sourceFilter(sourceFile string) *qdrant.Filter {
	if sourceFile == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(keySourceFile, sourceFile)},
	}
}

func toPoint(c models.Chunk) *qdrant.PointStruct {
	m := c.Metadata
	return &qdrant.PointStruct{
		Id:      qdrant.NewID(c.ID),
		Vectors: qdrant.NewVectors(toFloat32(c.Embedding)...),
		Payload: map[string]*qdrant.Value{
			keySourceFile:  stringValue(m.SourceFile),
			keyPage:        intValue(m.Page),
			keyChunkIndex:  intValue(m.ChunkIndex),
			keyContentType: stringValue(string(m.ContentType)),
			keyWordCount:   intValue(m.WordCount),
			keyTopic:       stringValue(m.Topic),
			keyText:        stringValue(c.Text),
			keyIngestedAt:  stringValue(m.IngestedAt.UTC().Format(time.RFC3339Nano)),
		},
	}
}

func fromPayload(id string, payload map[string]*qdrant.Value) models.Chunk {
	c := models.Chunk{
		ID:   id,
		Text: payload[keyText].GetStringValue(),
		Metadata: models.ChunkMetadata{
			SourceFile:  payload[keySourceFile].GetStringValue(),
			Page:        int(payload[keyPage].GetIntegerValue()),
			ChunkIndex:  int(payload[keyChunkIndex].GetIntegerValue()),
			ContentType: models.ContentType(payload[keyContentType].GetStringValue()),
			WordCount:   int(payload[keyWordCount].GetIntegerValue()),
			Topic:       payload[keyTopic].GetStringValue(),
		},
	}
	if ts, err := time.Parse(time.RFC3339Nano, payload[keyIngestedAt].GetStringValue()); err == nil {
		c.Metadata.IngestedAt = ts
	}
	return c
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intValue(n int) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(n)}}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
