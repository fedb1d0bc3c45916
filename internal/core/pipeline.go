// ABOUTME: Pipeline sequences classification, retrieval, composition, and scoring for queries
// ABOUTME: and chunking plus indexing for documents, normalizing every failure at its boundary
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
	"github.com/harper/edurag/internal/storage"
)

// DefaultTopK is the number of chunks retrieved per query
const DefaultTopK = 8

// Fixed user-facing texts. None of them carry diagnostics.
var refusalMessages = []string{
	"I'm sorry, but I can only help with educational questions related to the uploaded course materials. Please ask about the content in your PDFs.",
	"I'm designed to assist only with academic and educational topics from your uploaded documents. Could you please ask about the course content?",
	"I can only provide information about the educational materials you've uploaded. Please ask questions related to your course PDFs.",
	"My purpose is to help with learning from your uploaded educational content. Please ask questions about the academic materials.",
}

const (
	noContentMessage = "I couldn't find relevant information about your question in the uploaded educational materials. " +
		"Please make sure your question relates to the content in your PDFs, or try rephrasing your question with more specific terms."
	errorMessage = "I encountered an error while processing your educational question. " +
		"Please try rephrasing your question or check that it relates to your uploaded course materials."
)

// PipelineConfig tunes the pipeline. Zero values fall back to defaults.
type PipelineConfig struct {
	TopK         int
	QueryTimeout time.Duration
	FailOpen     bool
	ChunkSize    int
	ChunkOverlap int
	Indexer      IndexerConfig
}

// PipelineConfigFrom maps loaded configuration onto pipeline settings
func PipelineConfigFrom(cfg *config.Config) PipelineConfig {
	return PipelineConfig{
		TopK:         cfg.TopK,
		QueryTimeout: cfg.QueryTimeout,
		FailOpen:     cfg.FailOpen,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Indexer: IndexerConfig{
			Workers:    cfg.IngestWorkers,
			Timeout:    cfg.IngestTimeout,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		},
	}
}

// Pipeline is the single entry point for ingestion and question answering.
// It is safe for concurrent use.
type Pipeline struct {
	classifier *Classifier
	chunker    *DocumentChunker
	indexer    *Indexer
	ranker     *Ranker
	composer   *Composer
	scorer     *ConfidenceScorer
	store      storage.VectorStore
	cfg        PipelineConfig
	logger     *log.Logger

	refusals atomic.Uint64
}

// NewPipeline wires every component around the given services. The caller
// keeps ownership of store and closes it.
func NewPipeline(vocab *Vocabulary, embedder Embedder, generator Generator, store storage.VectorStore, cfg PipelineConfig, logger *log.Logger) *Pipeline {
	logger = logging.OrDiscard(logger)
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}

	indexer := NewIndexer(embedder, store, cfg.Indexer, logger.WithPrefix("indexer"))
	return &Pipeline{
		classifier: NewClassifier(vocab, generator, cfg.FailOpen, logger.WithPrefix("classifier")),
		chunker:    NewDocumentChunker(vocab, cfg.ChunkSize, cfg.ChunkOverlap),
		indexer:    indexer,
		ranker:     NewRanker(vocab, NewQueryExpander(vocab), indexer, store, logger.WithPrefix("ranker")),
		composer:   NewComposer(generator),
		scorer:     NewConfidenceScorer(vocab),
		store:      store,
		cfg:        cfg,
		logger:     logger,
	}
}

// AnswerQuery runs a query through the state machine and always returns a
// response. Service failures end in StateError with a generic apology.
func (p *Pipeline) AnswerQuery(ctx context.Context, query string) (resp models.ComposedResponse) {
	state := models.StateReceived
	var partial []models.RetrievalResult

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("query panicked", "state", state, "panic", r)
			resp = p.errorResponse(partial)
		}
	}()

	verdict := p.classify(ctx, query)
	if !verdict.IsEducational {
		p.transition(state, models.StateRejected)
		return models.ComposedResponse{
			Answer:        p.nextRefusal(),
			Sources:       []models.Citation{},
			IsEducational: false,
			Reason:        verdict.Reason,
			State:         models.StateRejected,
		}
	}
	state = p.transition(state, models.StateValidated)

	results, err := p.retrieve(ctx, query, p.cfg.TopK, models.SearchFilter{})
	if err != nil {
		p.transition(state, models.StateError)
		p.logger.Error("retrieval failed", "err", err)
		return p.errorResponse(nil)
	}
	if len(results) == 0 {
		p.transition(state, models.StateNoContent)
		return models.ComposedResponse{
			Answer:        noContentMessage,
			Sources:       []models.Citation{},
			IsEducational: true,
			Reason:        ErrNoRelevantContent.Error(),
			State:         models.StateNoContent,
		}
	}
	state = p.transition(state, models.StateRetrieved)
	partial = results

	comp, err := p.compose(ctx, query, results)
	if err != nil {
		p.transition(state, models.StateError)
		p.logger.Error("composition failed", "err", err)
		return p.errorResponse(comp.Used)
	}
	state = p.transition(state, models.StateComposed)

	confidence := p.scorer.Score(query, comp.Answer, comp.Used)
	state = p.transition(state, models.StateScored)

	p.logger.Info("answered query", "sources", len(comp.Used), "confidence", fmt.Sprintf("%.2f", confidence))
	return models.ComposedResponse{
		Answer:        comp.Answer,
		Sources:       citations(comp.Used),
		Confidence:    confidence,
		IsEducational: true,
		Reason:        verdict.Reason,
		State:         state,
	}
}

func (p *Pipeline) classify(ctx context.Context, query string) models.Verdict {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()
	return p.classifier.Classify(ctx, query)
}

func (p *Pipeline) retrieve(ctx context.Context, query string, k int, filter models.SearchFilter) ([]models.RetrievalResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()
	return p.ranker.Search(ctx, query, k, filter)
}

func (p *Pipeline) compose(ctx context.Context, query string, results []models.RetrievalResult) (Composition, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()
	return p.composer.Compose(ctx, query, results)
}

func (p *Pipeline) transition(from, to models.QueryState) models.QueryState {
	if !from.CanTransition(to) {
		p.logger.Error("invalid query state transition", "from", from, "to", to)
	}
	p.logger.Debug("query state", "from", from, "to", to)
	return to
}

func (p *Pipeline) nextRefusal() string {
	n := p.refusals.Add(1) - 1
	return refusalMessages[n%uint64(len(refusalMessages))]
}

func (p *Pipeline) errorResponse(partial []models.RetrievalResult) models.ComposedResponse {
	return models.ComposedResponse{
		Answer:        errorMessage,
		Sources:       citations(partial),
		Confidence:    0,
		IsEducational: true,
		Reason:        ErrServiceUnavailable.Error(),
		State:         models.StateError,
	}
}

func citations(results []models.RetrievalResult) []models.Citation {
	out := make([]models.Citation, len(results))
	for i, r := range results {
		out[i] = models.NewCitation(r)
	}
	return out
}

// ProcessDocument chunks pages and replaces whatever the store holds for
// sourceFile. The returned error is nil, ErrMalformedDocument, a
// *PartialFailureError, or a *ServiceError.
func (p *Pipeline) ProcessDocument(ctx context.Context, pages []models.Page, sourceFile string) (result models.IngestionResult, err error) {
	result = models.IngestionResult{SourceFile: sourceFile}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("ingestion panicked", "source", sourceFile, "panic", r)
			err = fmt.Errorf("ingesting %s: internal error", sourceFile)
			result.Success = false
			result.Error = err.Error()
		}
	}()

	if strings.TrimSpace(sourceFile) == "" {
		err = fmt.Errorf("source file name is required: %w", ErrMalformedDocument)
		result.Error = err.Error()
		return result, err
	}

	chunks := p.chunker.Chunk(pages, sourceFile)
	if len(chunks) == 0 {
		err = fmt.Errorf("%s: %w", sourceFile, ErrMalformedDocument)
		result.Error = err.Error()
		p.logger.Warn("no chunks extracted", "source", sourceFile, "pages", len(pages))
		return result, err
	}

	report, err := p.indexer.Replace(ctx, sourceFile, chunks)
	if err != nil {
		result.ChunksFailed = len(chunks)
		result.Error = err.Error()
		p.logger.Error("ingestion failed", "source", sourceFile, "err", err)
		return result, err
	}

	result.ChunksAdded = len(report.Stored)
	result.ChunksFailed = report.Failed
	result.Success = result.ChunksAdded > 0

	if report.Failed > 0 {
		err = &PartialFailureError{SourceFile: sourceFile, Succeeded: result.ChunksAdded, Failed: report.Failed}
		result.Error = err.Error()
	}

	p.logger.Info("ingested document", "source", sourceFile, "added", result.ChunksAdded, "failed", result.ChunksFailed)
	return result, err
}

// Search returns ranked chunks without classification or generation.
// A non-empty sourceFile restricts results to that document.
func (p *Pipeline) Search(ctx context.Context, query string, k int, sourceFile string) ([]models.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	if k <= 0 {
		k = p.cfg.TopK
	}
	return p.retrieve(ctx, query, k, models.SearchFilter{SourceFile: sourceFile})
}

// DeleteDocument removes every chunk of sourceFile
func (p *Pipeline) DeleteDocument(ctx context.Context, sourceFile string) (int, error) {
	n, err := p.indexer.DeleteBySource(ctx, sourceFile)
	if err != nil {
		return 0, err
	}
	p.logger.Info("deleted document", "source", sourceFile, "chunks", n)
	return n, nil
}

// ClearKnowledgeBase removes every chunk from the store
func (p *Pipeline) ClearKnowledgeBase(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return serviceError("vector store", "clear", err)
	}
	p.logger.Info("cleared knowledge base")
	return nil
}

// Stats reports what the knowledge base holds
func (p *Pipeline) Stats(ctx context.Context) (models.KnowledgeStats, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return models.KnowledgeStats{}, serviceError("vector store", "stats", err)
	}
	return stats, nil
}

// Summary describes the available material and what can be asked about it
func (p *Pipeline) Summary(ctx context.Context) (string, error) {
	stats, err := p.Stats(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Educational Content Available:\n")
	sb.WriteString(fmt.Sprintf("- %d content chunks processed\n", stats.TotalChunks))
	sb.WriteString(fmt.Sprintf("- %d documents uploaded\n", stats.UniqueSources()))
	if len(stats.SourceFiles) > 0 {
		sb.WriteString(fmt.Sprintf("- Source files: %s\n", strings.Join(stats.SourceFiles, ", ")))
	}
	sb.WriteString("\nYou can ask me about:\n")
	sb.WriteString("- Concepts and definitions from your course materials\n")
	sb.WriteString("- Explanations of topics covered in the documents\n")
	sb.WriteString("- Examples and illustrations from the documents\n")
	sb.WriteString("- Learning questions about the academic content\n")
	sb.WriteString("\nI cannot help with:\n")
	sb.WriteString("- Non-educational topics\n")
	sb.WriteString("- Personal questions\n")
	sb.WriteString("- Content not in your uploaded documents\n")
	sb.WriteString("- General knowledge outside your course materials\n")
	return sb.String(), nil
}
