// Package engine drives the redaction pipeline: annotate, pass-1
// recognizers, name cache population, pass-2, merge, anonymize. The engine
// is safe for concurrent use; every request owns a fresh name cache that is
// passed explicitly through the pipeline and discarded when the request
// ends.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/savegress/cliniredact/internal/anonymize"
	"github.com/savegress/cliniredact/internal/audit"
	"github.com/savegress/cliniredact/internal/catalog"
	"github.com/savegress/cliniredact/internal/merge"
	"github.com/savegress/cliniredact/internal/metrics"
	"github.com/savegress/cliniredact/internal/namecache"
	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/internal/recognizers"
	"github.com/savegress/cliniredact/pkg/models"
)

// EngineName identifies this engine in result metadata.
const EngineName = "cliniredact"

// Options configures engine construction.
type Options struct {
	// PatternsPath selects the pattern configuration file; empty loads the
	// embedded default catalog.
	PatternsPath string

	// Provider supplies the NLP facility; nil selects the prose provider.
	Provider nlp.Provider

	// SerializeNLP must be set when Provider is not reentrant.
	SerializeNLP bool

	// Audit receives per-request events when non-nil.
	Audit *audit.Logger

	// Metrics receives instrumentation when non-nil.
	Metrics *metrics.Metrics

	// Logger defaults to the standard logrus logger.
	Logger *logrus.Logger
}

// Engine is the redaction orchestrator and service façade.
type Engine struct {
	catalog   *catalog.Catalog
	annotator *nlp.Annotator
	registry  []recognizers.Recognizer
	passTwo   *recognizers.PassTwo
	audit     *audit.Logger
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

// New loads the pattern catalog and assembles the pipeline.
func New(opts Options) (*Engine, error) {
	cat, err := catalog.Load(opts.PatternsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	provider := opts.Provider
	if provider == nil {
		provider = nlp.NewProseProvider()
	}

	registry := recognizers.Registry(cat)
	if len(registry) == 0 {
		return nil, fmt.Errorf("%w: no recognizers configured", ErrConfig)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Engine{
		catalog:   cat,
		annotator: nlp.NewAnnotator(provider, cat.Vocab(), opts.SerializeNLP),
		registry:  registry,
		passTwo:   recognizers.NewPassTwo(cat.Vocab()),
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		log:       log,
	}, nil
}

// Catalog exposes the loaded pattern catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Redact runs the full pipeline over text. On error no partial result is
// returned; error messages never echo the input.
func (e *Engine) Redact(ctx context.Context, text string) (*models.RedactionResult, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	start := time.Now()
	result, skipped, err := e.redact(ctx, text)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.Duration.Observe(elapsed.Seconds())
	}

	if err != nil {
		e.observeFailure(text, skipped, elapsed, err)
		return nil, err
	}

	e.observeSuccess(result, skipped, elapsed)
	return result, nil
}

func (e *Engine) redact(ctx context.Context, text string) (*models.RedactionResult, []string, error) {
	doc, err := e.annotator.Annotate(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("%w: annotation failed", ErrInternal)
	}

	cache := namecache.New()
	var candidates []merge.Candidate
	var skipped []string

	for _, r := range e.registry {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}
		spans, err := e.safeRecognize(ctx, r, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, skipped, ctxErr
			}
			e.logFault(r.Name(), err, len(candidates))
			skipped = append(skipped, r.Name())
			continue
		}
		for _, s := range spans {
			candidates = append(candidates, merge.Candidate{Span: s, Pass: merge.PassOne})
		}
	}

	stopWords := e.catalog.Vocab().StopWords
	for _, c := range candidates {
		if c.EntityType == models.EntityPatientName {
			cache.Add(text[c.Start:c.End], stopWords)
		}
	}

	if cache.Initialized() {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}
		spans, discarded, err := e.passTwo.Recognize(ctx, doc, cache)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, skipped, ctxErr
			}
			e.logFault(e.passTwo.Name(), err, len(candidates))
			skipped = append(skipped, e.passTwo.Name())
		} else {
			for _, s := range spans {
				candidates = append(candidates, merge.Candidate{Span: s, Pass: merge.PassTwo})
			}
			if discarded > 0 && e.metrics != nil {
				e.metrics.PassTwoDiscards.Add(float64(discarded))
			}
		}
	}

	spans := merge.Resolve(candidates)
	redacted := anonymize.Apply(text, spans, e.catalog.Placeholder)

	types := make(map[models.EntityType]int)
	for _, s := range spans {
		types[s.EntityType]++
	}

	return &models.RedactionResult{
		Original: text,
		Redacted: redacted,
		Spans:    spans,
		Metadata: models.Metadata{
			Count:      len(spans),
			Types:      types,
			EngineName: EngineName,
		},
	}, skipped, nil
}

// safeRecognize shields the pipeline from a recognizer raising unexpectedly;
// the fault is converted to an error so the recognizer is skipped for this
// request only.
func (e *Engine) safeRecognize(ctx context.Context, r recognizers.Recognizer, doc *nlp.Document) (spans []models.Span, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("recognizer panic: %T", p)
		}
	}()
	return r.Recognize(ctx, doc)
}

// logFault records a recognizer failure with metadata only.
func (e *Engine) logFault(rule string, err error, candidateCount int) {
	e.log.WithFields(logrus.Fields{
		"rule":       rule,
		"error_kind": errorKind(err),
		"candidates": candidateCount,
	}).Warn("recognizer skipped for this request")
	if e.metrics != nil {
		e.metrics.RecognizerFaults.WithLabelValues(rule).Inc()
	}
}

func (e *Engine) observeSuccess(result *models.RedactionResult, skipped []string, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.Redactions.WithLabelValues(models.OutcomeSuccess).Inc()
		for t, n := range result.Metadata.Types {
			e.metrics.SpansEmitted.WithLabelValues(string(t)).Add(float64(n))
		}
	}
	if e.audit != nil {
		e.audit.LogRedaction(models.RedactionEvent{
			TextLength:   len(result.Original),
			SpanCount:    result.Metadata.Count,
			Types:        result.Metadata.Types,
			Duration:     elapsed,
			Outcome:      models.OutcomeSuccess,
			SkippedRules: skipped,
		})
	}
}

func (e *Engine) observeFailure(text string, skipped []string, elapsed time.Duration, err error) {
	e.log.WithFields(logrus.Fields{
		"error_kind":  Classify(err),
		"text_length": len(text),
	}).Error("redaction request failed")
	if e.metrics != nil {
		e.metrics.Redactions.WithLabelValues(models.OutcomeFailure).Inc()
	}
	if e.audit != nil {
		e.audit.LogRedaction(models.RedactionEvent{
			TextLength:   len(text),
			Duration:     elapsed,
			Outcome:      models.OutcomeFailure,
			SkippedRules: skipped,
		})
	}
}

func errorKind(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return Classify(err)
}
