package newsapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.APIConfig{
		Key:     "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Retries: 0,
	}
	return New(cfg, testLogger)
}

// --- Page Tests ---

func TestPageResultObject(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 200,
			"msg": "success",
			"result": {
				"curpage": 1,
				"allnum": 2,
				"list": [
					{"id": "a1", "title": "广东新闻一", "source": "南方网", "ctime": "2024-03-01 10:00", "url": "https://news.southcn.com/a1.html"},
					{"id": "a2", "title": "广东新闻二", "source": "金羊网", "ctime": "2024-03-01 11:00", "url": "https://news.ycwb.com/a2.html"}
				]
			}
		}`))
	})

	metas, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(metas))
	}
	if metas[0].Title != "广东新闻一" {
		t.Errorf("expected title 广东新闻一, got %q", metas[0].Title)
	}
	if metas[1].Source != "金羊网" {
		t.Errorf("expected source 金羊网, got %q", metas[1].Source)
	}
}

func TestPageResultBareArray(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 200,
			"msg": "success",
			"result": [
				{"id": "b1", "title": "直出数组", "source": "中国新闻网", "url": "https://www.chinanews.com/b1.shtml"}
			]
		}`))
	})

	metas, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected 1 article, got %d", len(metas))
	}
	if metas[0].ID != "b1" {
		t.Errorf("expected id b1, got %q", metas[0].ID)
	}
}

func TestPageNullResult(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 200, "msg": "success", "result": null}`))
	})

	metas, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 0 {
		t.Fatalf("expected no articles, got %d", len(metas))
	}
}

func TestPageAPIErrorCode(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 230, "msg": "key错误", "result": null}`))
	})

	_, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if err == nil {
		t.Fatal("expected error for non-200 api code")
	}
	if !errors.Is(err, types.ErrAPIFailure) {
		t.Errorf("expected ErrAPIFailure, got %v", err)
	}

	var apiErr *types.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != 230 {
		t.Errorf("expected code 230, got %d", apiErr.Code)
	}
	if apiErr.Msg != "key错误" {
		t.Errorf("expected msg key错误, got %q", apiErr.Msg)
	}
}

func TestPageSendsQueryParams(t *testing.T) {
	var got map[string]string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"key":      r.URL.Query().Get("key"),
			"areaname": r.URL.Query().Get("areaname"),
			"page":     r.URL.Query().Get("page"),
			"num":      r.URL.Query().Get("num"),
			"word":     r.URL.Query().Get("word"),
		}
		w.Write([]byte(`{"code": 200, "msg": "success", "result": {"list": []}}`))
	})

	_, err := client.Page(context.Background(), PageQuery{
		Area:    "广东",
		Page:    2,
		Num:     10,
		Keyword: "经济",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"key":      "test-key",
		"areaname": "广东",
		"page":     "2",
		"num":      "10",
		"word":     "经济",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("expected param %s=%q, got %q", k, v, got[k])
		}
	}
}

func TestPageOmitsOptionalParams(t *testing.T) {
	var rawQuery map[string][]string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.Query()
		w.Write([]byte(`{"code": 200, "msg": "success", "result": {"list": []}}`))
	})

	_, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rawQuery["num"]; ok {
		t.Error("expected num param to be omitted when unset")
	}
	if _, ok := rawQuery["word"]; ok {
		t.Error("expected word param to be omitted when unset")
	}
}

func TestPageMissingKey(t *testing.T) {
	cfg := &config.APIConfig{BaseURL: "http://localhost:1", Timeout: time.Second}
	client := New(cfg, testLogger)

	_, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if !errors.Is(err, types.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestPageHTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.Page(context.Background(), PageQuery{Area: "广东", Page: 1})
	if err == nil {
		t.Fatal("expected error for http 502")
	}

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", fetchErr.StatusCode)
	}
	if !fetchErr.Retryable {
		t.Error("expected 5xx to be retryable")
	}
}

// --- Meta Conversion Tests ---

func TestArticleMetaConversion(t *testing.T) {
	meta := ArticleMeta{
		ID:          "c3",
		Title:       "  珠三角制造业观察  ",
		Source:      "",
		CTime:       "2024-03-02 08:30",
		Description: "一季度数据",
		URL:         " https://example.com/c3 ",
	}

	article := meta.Article()
	if article.Title != "珠三角制造业观察" {
		t.Errorf("expected trimmed title, got %q", article.Title)
	}
	if article.Source != types.UnknownSource {
		t.Errorf("expected empty source to normalize to %q, got %q", types.UnknownSource, article.Source)
	}
	if article.URL != "https://example.com/c3" {
		t.Errorf("expected trimmed url, got %q", article.URL)
	}
	if article.PublishedAt != "2024-03-02 08:30" {
		t.Errorf("expected ctime preserved, got %q", article.PublishedAt)
	}
}
