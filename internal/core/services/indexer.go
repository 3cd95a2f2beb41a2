package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
	"github.com/modelcode-ai/codeqa-cli/internal/retry"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// IndexerConfig bundles the collaborators and knobs for an IndexerService.
type IndexerConfig struct {
	Root      string
	Extractor driven.SourceExtractor
	Chunker   driven.ChunkDispatcher
	Embedder  driven.EmbeddingService
	Stores    driven.VectorStoreFactory

	// LLM annotates chunks with explanations. Optional: when nil, chunks
	// are indexed with empty explanations.
	LLM driven.LLMService

	// Workers bounds the concurrent annotate+embed pipeline (default 4).
	Workers int

	// BatchSize is the number of chunks upserted per transaction (default 16).
	BatchSize int

	// Retry governs collaborator calls during the build.
	Retry retry.Policy
}

// IndexerService builds and loads the vector index for one repository root.
type IndexerService struct {
	cfg IndexerConfig

	mu    sync.Mutex
	store driven.VectorStore // committed store, set by Build or Load
}

// NewIndexerService creates an indexer over the given collaborators.
func NewIndexerService(cfg IndexerConfig) *IndexerService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	return &IndexerService{cfg: cfg}
}

// Build chunks, annotates, embeds and persists the repository. With an
// existing index and force false, the persisted index is reused as-is.
func (s *IndexerService) Build(ctx context.Context, force bool) (driving.IndexStats, error) {
	start := time.Now()
	var stats driving.IndexStats

	if !force && s.cfg.Stores.Exists() {
		if err := s.Load(ctx); err != nil {
			return stats, err
		}
		stats.Reused = true
		stats.Duration = time.Since(start)
		logger.Info("Index already exists, reusing (pass force to rebuild)")
		return stats, nil
	}

	store, err := s.cfg.Stores.OpenStaging(s.cfg.Embedder.ModelName())
	if err != nil {
		return stats, fmt.Errorf("open staging index: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			store.Close()
		}
	}()

	logger.Section("Indexing " + s.cfg.Root)
	chunks, err := s.chunkRepository(ctx, &stats)
	if err != nil {
		return stats, err
	}
	logger.Info("Chunked %d files into %d chunks", stats.FilesChunked, len(chunks))

	if err := s.annotateAndEmbed(ctx, store, chunks, &stats); err != nil {
		return stats, err
	}

	if err := store.Persist(ctx); err != nil {
		return stats, fmt.Errorf("persist index: %w", err)
	}
	committed = true

	s.mu.Lock()
	if s.store != nil {
		s.store.Close()
	}
	s.store = store
	s.mu.Unlock()

	stats.Duration = time.Since(start)
	logger.Info("Indexed %d chunks in %s (%d dropped, %d warnings)",
		stats.ChunksIndexed, stats.Duration.Round(time.Millisecond),
		stats.ChunksDropped, stats.Warnings)
	return stats, nil
}

// chunkRepository walks the root and parses every supported file.
func (s *IndexerService) chunkRepository(ctx context.Context, stats *driving.IndexStats) ([]domain.Chunk, error) {
	files, errs := s.cfg.Extractor.Walk(ctx, s.cfg.Root)

	var chunks []domain.Chunk
	for files != nil || errs != nil {
		select {
		case file, ok := <-files:
			if !ok {
				files = nil
				continue
			}
			fileChunks, err := s.cfg.Chunker.Chunk(file)
			if err != nil {
				// A file that fails to parse is skipped, not fatal.
				logger.Warn("Skipping %s: %v", file.Path, err)
				stats.Warnings++
				continue
			}
			if len(fileChunks) > 0 {
				stats.FilesChunked++
				chunks = append(chunks, fileChunks...)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(err, domain.ErrRootInaccessible) {
				return nil, err
			}
			logger.Warn("%v", err)
			stats.Warnings++

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return chunks, nil
}

// annotateAndEmbed runs the bounded worker pool that explains chunks, then
// embeds them batch-wise and upserts each batch as it completes.
func (s *IndexerService) annotateAndEmbed(
	ctx context.Context,
	store driven.VectorStore,
	chunks []domain.Chunk,
	stats *driving.IndexStats,
) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan domain.Chunk)
	annotated := make(chan domain.Chunk)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobs {
				select {
				case annotated <- s.annotateChunk(ctx, chunk):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(annotated)
	}()

	batch := make([]domain.Chunk, 0, s.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		embedded := s.embedBatch(ctx, batch, stats)
		batch = batch[:0]
		if len(embedded) == 0 {
			return nil
		}
		if err := store.Upsert(ctx, embedded); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		stats.ChunksIndexed += len(embedded)
		return nil
	}

	for chunk := range annotated {
		batch = append(batch, chunk)
		if len(batch) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return flush()
}

// annotateChunk attaches a generated explanation. Failures, and a missing
// LLM, degrade to an empty explanation; the chunk is still indexed.
func (s *IndexerService) annotateChunk(ctx context.Context, chunk domain.Chunk) domain.Chunk {
	if s.cfg.LLM == nil {
		return chunk
	}
	err := s.cfg.Retry.Do(ctx, "explain", func(ctx context.Context) error {
		explanation, err := s.cfg.LLM.Explain(ctx, chunk.Content, chunk.FilePath)
		if err != nil {
			return err
		}
		chunk.Explanation = explanation
		return nil
	})
	if err != nil {
		logger.Warn("Could not explain %s (%s): %v", chunk.Name, chunk.FilePath, err)
		chunk.Explanation = ""
	}
	return chunk
}

// embedBatch embeds a batch of annotated chunks in one request. When the
// batch request fails after retries it falls back to embedding chunks one by
// one so a single poisoned chunk drops alone instead of taking the batch
// with it. Returns only the chunks that received an embedding.
func (s *IndexerService) embedBatch(ctx context.Context, batch []domain.Chunk, stats *driving.IndexStats) []domain.Chunk {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].EmbeddingText()
	}

	var vectors [][]float32
	err := s.cfg.Retry.Do(ctx, "embed batch", func(ctx context.Context) error {
		v, err := s.cfg.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(v) != len(texts) {
			return fmt.Errorf("embedding count mismatch: got %d for %d texts", len(v), len(texts))
		}
		vectors = v
		return nil
	})
	if err == nil {
		kept := batch[:0]
		for i := range batch {
			batch[i].Embedding = vectors[i]
			if len(batch[i].Embedding) == 0 {
				s.dropChunk(batch[i], stats, errors.New("empty embedding"))
				continue
			}
			kept = append(kept, batch[i])
		}
		return kept
	}
	logger.Warn("Batch embedding failed, embedding chunks individually: %v", err)

	kept := batch[:0]
	for i := range batch {
		err := s.cfg.Retry.Do(ctx, "embed", func(ctx context.Context) error {
			embedding, err := s.cfg.Embedder.Embed(ctx, texts[i])
			if err != nil {
				return err
			}
			batch[i].Embedding = embedding
			return nil
		})
		if err != nil || len(batch[i].Embedding) == 0 {
			s.dropChunk(batch[i], stats, err)
			continue
		}
		kept = append(kept, batch[i])
	}
	return kept
}

func (s *IndexerService) dropChunk(chunk domain.Chunk, stats *driving.IndexStats, err error) {
	logger.Warn("Dropping %s (%s): no embedding produced: %v", chunk.Name, chunk.FilePath, err)
	stats.ChunksDropped++
	stats.Warnings++
}

// Load opens a previously persisted index for querying.
func (s *IndexerService) Load(ctx context.Context) error {
	store, err := s.cfg.Stores.OpenCommitted(s.cfg.Embedder.ModelName())
	if err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return fmt.Errorf("inspect index: %w", err)
	}
	logger.Debug("Loaded index with %d chunks", count)

	s.mu.Lock()
	if s.store != nil {
		s.store.Close()
	}
	s.store = store
	s.mu.Unlock()
	return nil
}

// IsReady reports whether the index can serve queries.
func (s *IndexerService) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store != nil
}

// Status inspects the committed index. When one exists it is loaded so the
// returned counts reflect disk state.
func (s *IndexerService) Status(ctx context.Context) (driving.IndexStatus, error) {
	status := driving.IndexStatus{Model: s.cfg.Embedder.ModelName()}
	if !s.cfg.Stores.Exists() {
		return status, nil
	}
	status.Exists = true

	if !s.IsReady() {
		if err := s.Load(ctx); err != nil {
			return status, err
		}
	}
	store, err := s.Store()
	if err != nil {
		return status, err
	}
	count, err := store.Count(ctx)
	if err != nil {
		return status, fmt.Errorf("inspect index: %w", err)
	}
	status.Chunks = count
	status.Dimensions = store.Dimensions()
	return status, nil
}

// Store returns the loaded vector store, or an error when neither Build nor
// Load has succeeded yet.
func (s *IndexerService) Store() (driven.VectorStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil, domain.ErrIndexNotReady
	}
	return s.store, nil
}

// Close releases the loaded store.
func (s *IndexerService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}
