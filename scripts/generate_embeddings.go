// Command generate_embeddings builds the destination embedding matrix used
// by the semantic ranker. Run it after any dataset reload:
//
//	go run ./scripts -out model_output/destination_embeddings.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	database "github.com/eyasluna999/wertigo/app/db"
	"github.com/eyasluna999/wertigo/config"
	"github.com/eyasluna999/wertigo/internal/api/destination"
	"github.com/eyasluna999/wertigo/internal/api/embedding"

	"log/slog"

	"github.com/joho/godotenv"
)

const (
	batchSize      = 32
	maxConcurrency = 4
)

func main() {
	outPath := flag.String("out", "model_output/destination_embeddings.json", "output file for the embedding matrix")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}
	logger := slog.Default()
	ctx := context.Background()

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer pool.Close()

	repo := destination.NewPostgresRepository(pool, logger)
	destinations, err := repo.GetAllDestinations(ctx)
	if err != nil {
		log.Fatalf("FATAL: loading destinations: %v", err)
	}
	if len(destinations) == 0 {
		log.Fatal("FATAL: no destinations in database, nothing to embed")
	}

	encoder, err := embedding.NewGeminiEncoder(ctx, cfg.Recommender.EncoderModel)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	matrix := embedding.Matrix{
		Model:   cfg.Recommender.EncoderModel,
		IDs:     make([]uuid.UUID, len(destinations)),
		Vectors: make([][]float32, len(destinations)),
	}
	for i, d := range destinations {
		matrix.IDs[i] = d.ID
	}

	// Encode in batches, a few in flight at a time. Results land at fixed
	// offsets so the matrix order matches the destination order.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for start := 0; start < len(destinations); start += batchSize {
		start := start
		end := start + batchSize
		if end > len(destinations) {
			end = len(destinations)
		}
		batch := destinations[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = (&batch[i]).CombinedText()
			}
			vectors, err := encoder.EncodeBatch(gctx, texts)
			if err != nil {
				return err
			}
			mu.Lock()
			copy(matrix.Vectors[start:end], vectors)
			mu.Unlock()
			log.Printf("Encoded destinations %d-%d of %d", start, end-1, len(destinations))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("FATAL: encoding destinations: %v", err)
	}

	if len(matrix.Vectors) > 0 && len(matrix.Vectors[0]) > 0 {
		matrix.Dimension = len(matrix.Vectors[0])
	}

	if err := writeMatrix(*outPath, &matrix); err != nil {
		log.Fatalf("FATAL: writing matrix: %v", err)
	}
	log.Printf("Wrote %d embeddings (dim %d) to %s", len(matrix.Vectors), matrix.Dimension, *outPath)
}

func writeMatrix(path string, matrix *embedding.Matrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(matrix)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
