package ledger

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ppiankov/claimcheck/internal/model"
)

// QdrantLedger writes claim records to a Qdrant collection over gRPC
type QdrantLedger struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   int
	apiKey      string
	logger      *slog.Logger
}

// NewQdrantLedger connects to the Qdrant gRPC endpoint described by cfg
func NewQdrantLedger(cfg model.LedgerConfig, logger *slog.Logger) (*QdrantLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	port := cfg.Port
	if port == 0 {
		port = 6334
	}
	target := fmt.Sprintf("%s:%d", cfg.Host, port)

	creds := insecure.NewCredentials()
	if cfg.Scheme == "https" {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", target, err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "claims"
	}

	return &QdrantLedger{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
		dimension:   cfg.Dimension,
		apiKey:      cfg.APIKey,
		logger:      logger.With("component", "ledger", "provider", "qdrant"),
	}, nil
}

// Initialize creates the collection with cosine distance if it does not exist
func (q *QdrantLedger) Initialize(ctx context.Context) error {
	ctx = q.withAuth(ctx)

	collections, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list qdrant collections: %w", err)
	}

	for _, col := range collections.GetCollections() {
		if col.GetName() == q.collection {
			q.logger.Debug("collection exists", "collection", q.collection)
			return nil
		}
	}

	if q.dimension <= 0 {
		return fmt.Errorf("create qdrant collection %s: dimension must be positive, got %d", q.collection, q.dimension)
	}

	_, err = q.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(q.dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create qdrant collection %s: %w", q.collection, err)
	}

	q.logger.Info("created collection", "collection", q.collection, "dimension", q.dimension)
	return nil
}

// Upsert writes records as points keyed by PointID(record.ID)
func (q *QdrantLedger) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrantclient.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: PointID(r.ID)},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: r.Embedding},
				},
			},
			Payload: qdrantPayload(r),
		})
	}

	wait := true
	_, err := q.points.Upsert(q.withAuth(ctx), &qdrantclient.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points to qdrant: %w", len(points), err)
	}

	q.logger.Debug("upserted points", "collection", q.collection, "count", len(points))
	return nil
}

// Close closes the gRPC connection
func (q *QdrantLedger) Close() error {
	return q.conn.Close()
}

func (q *QdrantLedger) withAuth(ctx context.Context) context.Context {
	if q.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", q.apiKey)
}

// qdrantPayload converts record metadata to Qdrant values; the unhashed record ID
// is kept under "recordId" since the point ID is a derived UUID.
func qdrantPayload(r Record) map[string]*qdrantclient.Value {
	payload := make(map[string]*qdrantclient.Value, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		payload[k] = qdrantValue(v)
	}
	payload["recordId"] = qdrantValue(r.ID)
	return payload
}

func qdrantValue(v any) *qdrantclient.Value {
	switch val := v.(type) {
	case string:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: val}}
	case bool:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_BoolValue{BoolValue: val}}
	case int:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_DoubleValue{DoubleValue: val}}
	case nil:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_NullValue{}}
	default:
		return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: fmt.Sprint(val)}}
	}
}
