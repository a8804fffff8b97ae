package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/to404hanga/online_judge_aggregator/constants"
)

// TestcaseSubmission 提交给判题引擎的单个测试用例
type TestcaseSubmission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
	CPUTimeLimit   int    `json:"cpu_time_limit"`  // 毫秒
	MemoryLimit    int    `json:"memory_limit"`    // MB
	CallbackURL    string `json:"callback_url"`    // 引擎逐用例回调
}

// JudgeEngineClient 判题引擎客户端。批量派发一次提交的全部用例,
// 返回与入参顺序一致的 token 列表
type JudgeEngineClient interface {
	SubmitBatch(ctx context.Context, testcases []TestcaseSubmission) ([]string, error)
}

type HTTPJudgeEngineClient struct {
	baseURL string
	client  *http.Client
}

var _ JudgeEngineClient = (*HTTPJudgeEngineClient)(nil)

func NewHTTPJudgeEngineClient(baseURL string, timeout time.Duration) JudgeEngineClient {
	return &HTTPJudgeEngineClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type submitBatchRequest struct {
	Submissions []TestcaseSubmission `json:"submissions"`
}

type submitBatchResponseItem struct {
	Token string `json:"token"`
}

func (c *HTTPJudgeEngineClient) SubmitBatch(ctx context.Context, testcases []TestcaseSubmission) ([]string, error) {
	body, err := json.Marshal(submitBatchRequest{Submissions: testcases})
	if err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/submissions/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderRequestIDKey, uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SubmitBatch failed: judge engine returned %d: %s", resp.StatusCode, raw)
	}

	var items []submitBatchResponseItem
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at unmarshal response: %w", err)
	}
	if len(items) != len(testcases) {
		return nil, fmt.Errorf("SubmitBatch failed: expected %d tokens, got %d", len(testcases), len(items))
	}

	tokens := make([]string, 0, len(items))
	for _, item := range items {
		tokens = append(tokens, item.Token)
	}
	return tokens, nil
}
