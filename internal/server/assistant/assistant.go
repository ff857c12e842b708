// Package assistant answers free-form questions about the loaded dataset by
// sending a condensed summary plus the question to an external chat
// completion model. It reads dataset content only; it never mutates it.
package assistant

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/models"
	"github.com/chipsfactory/prodreport/internal/server/report"
)

const systemPrompt = "You are a production analyst for a snack factory. " +
	"Answer questions using only the dataset summary provided. " +
	"If the summary does not contain the answer, say so."

// Completer is the slice of the OpenAI client the service needs; a stub
// stands in for it in tests.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Service struct {
	client Completer
	model  string
	log    logging.Logger
}

// Config carries the completion backend settings. BaseURL is optional and
// supports OpenAI-compatible local backends.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewService(cfg Config, log logging.Logger) *Service {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		log:    log.With("component", "assistant"),
	}
}

// NewServiceWithClient wires an explicit completer. Used by tests.
func NewServiceWithClient(client Completer, model string, log logging.Logger) *Service {
	return &Service{client: client, model: model, log: log.With("component", "assistant")}
}

// Summarize condenses the dataset into the textual context handed to the
// model: overall KPIs, the covered date range, and the record count.
func Summarize(ds *models.Dataset) string {
	k := report.Calculate(ds)

	var b strings.Builder
	b.WriteString("--- FULL DATASET SUMMARY ---\n")
	fmt.Fprintf(&b, "Total Production (Units): %.0f\n", k.TotalProduction)
	fmt.Fprintf(&b, "Planned Production (Units): %.0f\n", k.TotalPlanned)
	fmt.Fprintf(&b, "Overall Efficiency: %.2f%%\n", k.Efficiency*100)
	fmt.Fprintf(&b, "Raw Material Yield: %.2f%%\n", k.YieldRate*100)
	fmt.Fprintf(&b, "Total Waste (kg): %.1f\n", k.TotalWaste)
	fmt.Fprintf(&b, "Total Downtime (Minutes): %.0f\n", k.TotalDowntime)

	if from, to, ok := dateRange(ds); ok {
		fmt.Fprintf(&b, "Data Period: %s to %s\n", from, to)
	}
	fmt.Fprintf(&b, "Records: %d rows, %d columns\n", len(ds.Rows), len(ds.Columns))

	return b.String()
}

// Ask sends the dataset summary and the user's question to the completion
// model and returns the answer text.
func (s *Service) Ask(ctx context.Context, ds *models.Dataset, question string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Summarize(ds) + "\nQuestion: " + question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	s.log.Debug(ctx, "assistant answered", "model", s.model)
	return resp.Choices[0].Message.Content, nil
}

func dateRange(ds *models.Dataset) (string, string, bool) {
	dateIdx := -1
	for i, c := range ds.Columns {
		if c.Type == models.ColumnDate {
			dateIdx = i
			break
		}
	}
	if dateIdx == -1 {
		return "", "", false
	}

	var minSet bool
	var min, max string
	for _, row := range ds.Rows {
		rendered := models.FormatCell(row.Cells[dateIdx])
		if rendered == "" {
			continue
		}
		if !minSet || rendered < min {
			min = rendered
			minSet = true
		}
		if rendered > max {
			max = rendered
		}
	}
	if !minSet {
		return "", "", false
	}
	return min, max, true
}
