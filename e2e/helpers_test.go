package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"worry_solver/internal/codegen"
	"worry_solver/internal/config"
	httpserver "worry_solver/internal/http"
	"worry_solver/internal/http/controller"
	"worry_solver/internal/http/dto"
	"worry_solver/internal/metrics"
	"worry_solver/internal/queue"
	"worry_solver/internal/recordstore"
	"worry_solver/internal/service/worry"
	"worry_solver/internal/sse"
	"worry_solver/internal/store/memory"
)

func ginTestMode() {
	gin.SetMode(gin.TestMode)
}

type noopPublisher struct{}

func (n *noopPublisher) Publish(ctx context.Context, payload []byte, routingKey string) error {
	_ = ctx
	_ = payload
	_ = routingKey
	return nil
}

type testEnv struct {
	server  *httptest.Server
	svc     *worry.Service
	records *recordstore.Store
}

// newTestEnv wires the HTTP stack over an in-memory medium and starts the hub.
func newTestEnv(t *testing.T, cfg *config.Config, publisher queue.Publisher) *testEnv {
	t.Helper()
	ginTestMode()

	logger := zap.NewNop()
	records := recordstore.New(memory.New(logger), logger)
	require.NoError(t, records.Init(context.Background()))
	hub := sse.NewHub()
	m := metrics.New()
	codes := codegen.NewFromConfig(cfg, records, logger)
	svc := worry.NewService(cfg, records, codes, hub, publisher, m, logger)
	handler := controller.NewHandler(cfg, svc, hub, logger, publisher)
	router := httpserver.NewRouter(cfg, handler, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, svc: svc, records: records}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func submitWorry(t *testing.T, baseURL, text string) dto.SubmitWorryResponse {
	t.Helper()
	resp := postJSON(t, baseURL+"/worries", map[string]any{
		"confessionText": text,
		"selectedTags":   []string{"stress"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.SubmitWorryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readSSEData(reader *bufio.Reader, timeout time.Duration) (string, error) {
	type result struct {
		data string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var dataLines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				ch <- result{"", err}
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if len(dataLines) > 0 {
					ch <- result{strings.Join(dataLines, "\n"), nil}
					return
				}
				continue
			}
			if strings.HasPrefix(line, ":") {
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}()

	select {
	case res := <-ch:
		return res.data, res.err
	case <-time.After(timeout):
		return "", context.DeadlineExceeded
	}
}
