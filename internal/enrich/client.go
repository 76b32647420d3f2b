// Package enrich asks a generative text model for facts about a classified
// species and turns its answer into a FactRecord.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrEmptyResponse = errors.New("generative model returned no text")
	ErrMalformedJSON = errors.New("generative model returned malformed JSON")
)

// Generator sends a single prompt to a text generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type FailureReason string

const (
	FailureNone          FailureReason = ""
	FailureRequest       FailureReason = "request"
	FailureEmptyResponse FailureReason = "empty_response"
	FailureMalformedJSON FailureReason = "malformed_json"
)

// Result is the outcome of one enrichment call. Record is always well formed;
// when Failure is not FailureNone it holds the fallback and Err the cause.
type Result struct {
	Record  FactRecord
	Failure FailureReason
	Err     error
}

func (r Result) Fallback() bool {
	return r.Failure != FailureNone
}

type Client struct {
	generator Generator
	logger    *zap.Logger
}

func NewClient(generator Generator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{generator: generator, logger: logger}
}

// FetchInfo returns facts about label, or the fallback record if they cannot
// be obtained.
func (c *Client) FetchInfo(ctx context.Context, label string) FactRecord {
	return c.Fetch(ctx, label).Record
}

// Fetch makes one generation request for label. It never returns an error;
// failures are reported through Result.Failure.
func (c *Client) Fetch(ctx context.Context, label string) Result {
	raw, err := c.generate(ctx, BuildPrompt(label))
	if err != nil {
		return c.fallback(label, FailureRequest, err)
	}

	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return c.fallback(label, FailureEmptyResponse, ErrEmptyResponse)
	}

	record, err := parseRecord(cleaned)
	if err != nil {
		return c.fallback(label, FailureMalformedJSON, err)
	}

	c.logger.Debug("fetched species facts", zap.String("label", label))
	return Result{Record: record}
}

// generate shields callers from a panicking Generator.
func (c *Client) generate(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panicked: %v", r)
		}
	}()
	return c.generator.Generate(ctx, prompt)
}

func (c *Client) fallback(label string, reason FailureReason, err error) Result {
	c.logger.Warn("using fallback species facts",
		zap.String("label", label),
		zap.String("reason", string(reason)),
		zap.Error(err))
	return Result{
		Record:  FallbackRecord(label),
		Failure: reason,
		Err:     err,
	}
}

// cleanResponse trims whitespace and strips a surrounding markdown code fence.
func cleanResponse(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func parseRecord(text string) (FactRecord, error) {
	if !strings.HasPrefix(text, "{") {
		return FactRecord{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedJSON)
	}
	var record FactRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return FactRecord{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	record.normalize()
	return record, nil
}
