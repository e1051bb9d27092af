package service

import (
	"classhub_backend/internal/config"
	"classhub_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newGradingTestServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req gradingChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Temperature != 0 {
			t.Errorf("temperature must be 0, got %v", req.Temperature)
		}
		last := req.Messages[len(req.Messages)-1].Content
		if !strings.Contains(last, "Q: ") || !strings.Contains(last, "E: ") || !strings.Contains(last, "A: ") {
			t.Errorf("prompt missing Q/E/A sections: %q", last)
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := gradingChatResponse{}
		resp.Choices = []struct {
			Message gradingChatMessage `json:"message"`
		}{{Message: gradingChatMessage{Role: "assistant", Content: reply}}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGradingService(baseURL string) *GradingService {
	return NewGradingService(config.GradingConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, nil, zap.NewNop())
}

func TestGradeAnswerOK(t *testing.T) {
	srv := newGradingTestServer(t, "Score: 85%\nExplanation: Mostly correct.", http.StatusOK)
	defer srv.Close()

	svc := newTestGradingService(srv.URL)
	score, explanation, err := svc.GradeAnswer(context.Background(), "q", "e", "a")
	if err != nil {
		t.Fatalf("GradeAnswer: %v", err)
	}
	if score != 85 {
		t.Fatalf("expected score 85, got %d", score)
	}
	if explanation != "Mostly correct." {
		t.Fatalf("unexpected explanation %q", explanation)
	}
}

func TestGradeAnswerUpstreamError(t *testing.T) {
	srv := newGradingTestServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	svc := newTestGradingService(srv.URL)
	_, _, err := svc.GradeAnswer(context.Background(), "q", "e", "a")
	if !errors.Is(err, util.ErrGradingFailed) {
		t.Fatalf("expected ErrGradingFailed, got %v", err)
	}
}

func TestParseGradeReply(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantScore   int
		wantExplain string
		wantErr     bool
	}{
		{
			name:        "valid reply",
			reply:       "Score: 100%\nExplanation: Perfect match.",
			wantScore:   100,
			wantExplain: "Perfect match.",
		},
		{
			name:        "zero score",
			reply:       "Score: 0%\nExplanation: Completely wrong.",
			wantScore:   0,
			wantExplain: "Completely wrong.",
		},
		{
			name:        "surrounding whitespace",
			reply:       "\nScore: 42%\n Explanation: Partial credit.\n",
			wantScore:   42,
			wantExplain: "Partial credit.",
		},
		{name: "missing explanation line", reply: "Score: 50%", wantErr: true},
		{name: "missing score prefix", reply: "50%\nExplanation: x", wantErr: true},
		{name: "missing percent sign", reply: "Score: 50\nExplanation: x", wantErr: true},
		{name: "non-integer score", reply: "Score: fifty%\nExplanation: x", wantErr: true},
		{name: "score above range", reply: "Score: 101%\nExplanation: x", wantErr: true},
		{name: "negative score", reply: "Score: -1%\nExplanation: x", wantErr: true},
		{name: "wrong explanation prefix", reply: "Score: 50%\nReason: x", wantErr: true},
		{name: "empty reply", reply: "", wantErr: true},
		{name: "chatty preamble", reply: "Sure! Here is the grade:\nScore: 50%\nExplanation: x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, explanation, err := parseGradeReply(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, util.ErrGradingFailed) {
					t.Fatalf("expected ErrGradingFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseGradeReply: %v", err)
			}
			if score != tt.wantScore {
				t.Fatalf("score = %d, want %d", score, tt.wantScore)
			}
			if explanation != tt.wantExplain {
				t.Fatalf("explanation = %q, want %q", explanation, tt.wantExplain)
			}
		})
	}
}

func TestGradeCacheKeyDistinguishesInputs(t *testing.T) {
	base := gradeCacheKey("q", "e", "a")
	if gradeCacheKey("q", "e", "b") == base {
		t.Fatal("different answers must hash differently")
	}
	// 分隔符保证字段不会串位
	if gradeCacheKey("qe", "", "a") == gradeCacheKey("q", "e", "a") {
		t.Fatal("field boundaries must be preserved")
	}
	if gradeCacheKey("q", "e", "a") != base {
		t.Fatal("same inputs must hash identically")
	}
}
