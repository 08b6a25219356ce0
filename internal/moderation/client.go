package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// 审核客户端错误
// 网络错误、超时、5xx 与响应缺失得分统一视为"审核失败"，绝不解释为"通过"
var (
	ErrClassifierUnavailable = errors.New("审核服务不可用")
	ErrMalformedResponse     = errors.New("审核服务响应格式错误")
)

// Client 文本分类客户端接口
// 返回各风险分类的得分（0-1），判定规则由调用方负责
type Client interface {
	Classify(ctx context.Context, text string) (map[string]float64, error)
}

// MistralConfig Mistral 审核接口配置
type MistralConfig struct {
	APIKey  string
	BaseURL string        // 默认 https://api.mistral.ai
	Model   string        // 默认 mistral-moderation-latest
	Timeout time.Duration // 单次请求超时，默认 10s
}

// mistralClient Mistral 内容审核客户端
// 熔断器包裹供应商调用，熔断打开时直接按服务不可用处理
type mistralClient struct {
	cfg     MistralConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewMistralClient 创建 Mistral 审核客户端
func NewMistralClient(cfg MistralConfig) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-moderation-latest"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &mistralClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "moderation",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// moderationRequest 审核请求体
type moderationRequest struct {
	Model  string              `json:"model"`
	Inputs []map[string]string `json:"inputs"`
}

// moderationResponse 审核响应体
type moderationResponse struct {
	Results []struct {
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Classify 调用审核接口，返回各分类得分
func (c *mistralClient) Classify(ctx context.Context, text string) (map[string]float64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.classify(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: 熔断器已打开", ErrClassifierUnavailable)
		}
		return nil, err
	}
	return result.(map[string]float64), nil
}

func (c *mistralClient) classify(ctx context.Context, text string) (map[string]float64, error) {
	body, err := json.Marshal(moderationRequest{
		Model:  c.cfg.Model,
		Inputs: []map[string]string{{"role": "user", "content": text}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/chat/moderations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP %d", ErrClassifierUnavailable, resp.StatusCode)
	}

	var mr moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(mr.Results) == 0 || mr.Results[0].CategoryScores == nil {
		return nil, fmt.Errorf("%w: 缺少得分字段", ErrMalformedResponse)
	}
	return mr.Results[0].CategoryScores, nil
}

// IsClassifyError 判断是否为审核失败类错误（不可用或响应格式错误）
func IsClassifyError(err error) bool {
	return errors.Is(err, ErrClassifierUnavailable) || errors.Is(err, ErrMalformedResponse)
}
