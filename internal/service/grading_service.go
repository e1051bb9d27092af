package service

import (
	"bytes"
	"classhub_backend/internal/config"
	"classhub_backend/internal/util"
	"classhub_backend/pkg/monitoring"
	"classhub_backend/pkg/tracing"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// gradingSystemPrompt 要求模型只输出两行：分数行和解释行。
// few-shot 示例把输出格式钉死，temperature=0 消除格式漂移。
const gradingSystemPrompt = "You are a teacher grading a student's answer to an open-ended question.\n" +
	"You will receive the question (Q), the expected answer (E) and the student's answer (A).\n" +
	"Judge how well the student's answer matches the expected answer in meaning, not wording.\n" +
	"Reply with EXACTLY two lines and nothing else:\n" +
	"Score: <integer 0-100>%\n" +
	"Explanation: <one short sentence justifying the score>"

const gradingExampleUser = "Q: What is the capital of France?\n" +
	"E: Paris\n" +
	"A: I think it is Paris."

const gradingExampleAssistant = "Score: 100%\n" +
	"Explanation: The student correctly identified Paris as the capital of France."

type GradingService struct {
	mu     sync.RWMutex
	cfg    config.GradingConfig
	client *http.Client
	redis  *redis.Client
	logger *zap.Logger
}

func NewGradingService(cfg config.GradingConfig, redisClient *redis.Client, logger *zap.Logger) *GradingService {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GradingService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		redis:  redisClient,
		logger: logger,
	}
}

// UpdateConfig 配置热更新入口，base_url/model/api_key 即时生效
func (s *GradingService) UpdateConfig(cfg config.GradingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *GradingService) config() config.GradingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type gradingChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gradingChatRequest struct {
	Model       string               `json:"model"`
	Messages    []gradingChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
}

type gradingChatResponse struct {
	Choices []struct {
		Message gradingChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type cachedGrade struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// GradeAnswer 调用评分接口给答案打分。相同 (题目, 预期答案, 学生答案)
// 的结果缓存在 Redis 里，重复提交不再消耗配额。
func (s *GradingService) GradeAnswer(ctx context.Context, question, expectedAnswer, userAnswer string) (int, string, error) {
	ctx, span := tracing.Tracer.Start(ctx, "grading.GradeAnswer")
	defer span.End()

	cacheKey := gradeCacheKey(question, expectedAnswer, userAnswer)
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached cachedGrade
			if json.Unmarshal([]byte(raw), &cached) == nil {
				monitoring.GradingCounter.WithLabelValues("cache_hit").Inc()
				span.SetAttributes(attribute.Bool("grading.cache_hit", true))
				return cached.Score, cached.Explanation, nil
			}
		}
	}

	start := time.Now()
	score, explanation, err := s.gradeRemote(ctx, question, expectedAnswer, userAnswer)
	monitoring.GradingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.GradingCounter.WithLabelValues("error").Inc()
		span.RecordError(err)
		return 0, "", err
	}
	monitoring.GradingCounter.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("grading.score", score))

	if s.redis != nil {
		if raw, err := json.Marshal(cachedGrade{Score: score, Explanation: explanation}); err == nil {
			if err := s.redis.Set(ctx, cacheKey, raw, s.config().CacheTTL).Err(); err != nil {
				s.logger.Warn("缓存评分结果失败", zap.Error(err))
			}
		}
	}
	return score, explanation, nil
}

func (s *GradingService) gradeRemote(ctx context.Context, question, expectedAnswer, userAnswer string) (int, string, error) {
	cfg := s.config()
	payload := gradingChatRequest{
		Model: cfg.Model,
		Messages: []gradingChatMessage{
			{Role: "system", Content: gradingSystemPrompt},
			{Role: "user", Content: gradingExampleUser},
			{Role: "assistant", Content: gradingExampleAssistant},
			{Role: "user", Content: fmt.Sprintf("Q: %s\nE: %s\nA: %s", question, expectedAnswer, userAnswer)},
		},
		Temperature: 0,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", util.ErrGradingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", util.ErrGradingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", util.ErrGradingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error("评分接口返回异常状态",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return 0, "", fmt.Errorf("%w: grading API status %d", util.ErrGradingFailed, resp.StatusCode)
	}

	var chatResp gradingChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return 0, "", fmt.Errorf("%w: %v", util.ErrGradingFailed, err)
	}
	if chatResp.Error != nil {
		return 0, "", fmt.Errorf("%w: %s", util.ErrGradingFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return 0, "", fmt.Errorf("%w: empty choices", util.ErrGradingFailed)
	}

	return parseGradeReply(chatResp.Choices[0].Message.Content)
}

// parseGradeReply 解析评分回复。约定格式：
//
//	Score: NN%
//	Explanation: ...
//
// 任何偏离（缺行、缺前缀、非整数、超出 0-100）都判为评分失败，
// 不做猜测性修补。
func parseGradeReply(reply string) (int, string, error) {
	lines := strings.SplitN(strings.TrimSpace(reply), "\n", 2)
	if len(lines) != 2 {
		return 0, "", fmt.Errorf("%w: malformed reply %q", util.ErrGradingFailed, reply)
	}

	scoreLine := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(scoreLine, "Score: ") || !strings.HasSuffix(scoreLine, "%") {
		return 0, "", fmt.Errorf("%w: malformed score line %q", util.ErrGradingFailed, scoreLine)
	}
	score, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(scoreLine, "Score: "), "%"))
	if err != nil {
		return 0, "", fmt.Errorf("%w: malformed score line %q", util.ErrGradingFailed, scoreLine)
	}
	if score < 0 || score > 100 {
		return 0, "", fmt.Errorf("%w: score %d out of range", util.ErrGradingFailed, score)
	}

	explanationLine := strings.TrimSpace(lines[1])
	if !strings.HasPrefix(explanationLine, "Explanation: ") {
		return 0, "", fmt.Errorf("%w: malformed explanation line %q", util.ErrGradingFailed, explanationLine)
	}

	return score, strings.TrimPrefix(explanationLine, "Explanation: "), nil
}

func gradeCacheKey(question, expectedAnswer, userAnswer string) string {
	h := sha256.New()
	h.Write([]byte(question))
	h.Write([]byte{0})
	h.Write([]byte(expectedAnswer))
	h.Write([]byte{0})
	h.Write([]byte(userAnswer))
	return "grading:" + hex.EncodeToString(h.Sum(nil))
}
