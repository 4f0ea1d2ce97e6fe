package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/pharmacy/models"
)

var (
	ErrNotConfigured    = errors.New("dịch vụ AI chưa được cấu hình")
	ErrSymptomsRequired = errors.New("vui lòng nhập triệu chứng lâm sàng")
)

// Client talks to the clinic's AI assistant endpoints: free-text diagnosis
// suggestions and structured drug extraction from uploaded document text.
// Calls carry no retry policy; a failure is surfaced and state is left as
// it was.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
	configured bool
}

type suggestRequest struct {
	Symptoms string `json:"symptoms"`
}

type suggestResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message,omitempty"`
	Drugs   []models.Drug `json:"drugs,omitempty"`
}

func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &Client{
		httpClient: client,
		logger:     logger,
		configured: baseURL != "",
	}
}

// SuggestDiagnosis returns the assistant's free-text differential for the
// given symptoms.
func (c *Client) SuggestDiagnosis(ctx context.Context, symptoms string) (string, error) {
	if strings.TrimSpace(symptoms) == "" {
		return "", ErrSymptomsRequired
	}
	if !c.configured {
		return "", ErrNotConfigured
	}

	var response suggestResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(suggestRequest{Symptoms: symptoms}).
		SetResult(&response).
		Post("/v1/diagnosis")
	if err != nil {
		c.logger.Error("AI diagnosis call failed", zap.Error(err))
		return "", fmt.Errorf("không kết nối được đến AI: %w", err)
	}
	if resp.IsError() || response.Status != "success" {
		msg := response.Message
		if msg == "" {
			msg = resp.Status()
		}
		c.logger.Error("AI diagnosis returned error", zap.String("message", msg))
		return "", fmt.Errorf("AI trả về lỗi: %s", msg)
	}
	return response.Suggestion, nil
}

// ExtractDrugs asks the assistant to pull a structured drug list out of
// free text (typically PDF content uploaded by the clinic).
func (c *Client) ExtractDrugs(ctx context.Context, text string) ([]models.Drug, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var response extractResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(extractRequest{Text: text}).
		SetResult(&response).
		Post("/v1/extract-drugs")
	if err != nil {
		c.logger.Error("AI drug extraction call failed", zap.Error(err))
		return nil, fmt.Errorf("không kết nối được đến AI: %w", err)
	}
	if resp.IsError() || response.Status != "success" {
		msg := response.Message
		if msg == "" {
			msg = resp.Status()
		}
		c.logger.Error("AI drug extraction returned error", zap.String("message", msg))
		return nil, fmt.Errorf("AI trả về lỗi: %s", msg)
	}
	c.logger.Info("drugs extracted from text", zap.Int("count", len(response.Drugs)))
	return response.Drugs, nil
}
