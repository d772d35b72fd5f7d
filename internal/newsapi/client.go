package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/types"
)

const codeSuccess = 200

// ArticleMeta is one article entry as returned by the areanews API.
type ArticleMeta struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	CTime       string `json:"ctime"`
	Description string `json:"description"`
	PicURL      string `json:"picUrl"`
	URL         string `json:"url"`
}

// Article converts API metadata to the canonical record. The word count is
// filled in later by the harvest pipeline.
func (m ArticleMeta) Article() types.Article {
	return types.Article{
		ID:          m.ID,
		Title:       strings.TrimSpace(m.Title),
		Source:      types.NormalizeSource(m.Source),
		URL:         strings.TrimSpace(m.URL),
		PublishedAt: m.CTime,
		Description: strings.TrimSpace(m.Description),
	}
}

// PageQuery selects one page of regional news.
type PageQuery struct {
	Area    string
	Page    int
	Num     int
	Keyword string
}

// Client queries the tianapi areanews endpoint. The API key travels only as
// a query parameter and is never logged.
type Client struct {
	http   *resty.Client
	key    string
	logger *slog.Logger
}

// New creates an areanews client from API configuration.
func New(cfg *config.APIConfig, logger *slog.Logger) *Client {
	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("User-Agent", "newslens/"+config.Version)

	return &Client{
		http:   httpc,
		key:    cfg.Key,
		logger: logger.With("component", "newsapi"),
	}
}

// Page fetches one page of article metadata.
func (c *Client) Page(ctx context.Context, q PageQuery) ([]ArticleMeta, error) {
	if c.key == "" {
		return nil, fmt.Errorf("%w: api key is not configured", types.ErrInvalidParameter)
	}
	if q.Page < 1 {
		q.Page = 1
	}

	params := map[string]string{
		"key":      c.key,
		"areaname": q.Area,
		"page":     strconv.Itoa(q.Page),
	}
	if q.Num > 0 {
		params["num"] = strconv.Itoa(q.Num)
	}
	if q.Keyword != "" {
		params["word"] = q.Keyword
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("")
	if err != nil {
		return nil, &types.FetchError{URL: c.http.BaseURL, Err: err, Retryable: true}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &types.FetchError{
			URL:        c.http.BaseURL,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", resp.Status()),
			Retryable:  resp.StatusCode() >= 500,
		}
	}

	var envelope apiResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decode api response: %w", err)
	}
	if envelope.Code != codeSuccess {
		return nil, &types.APIError{Code: envelope.Code, Msg: envelope.Msg}
	}

	metas, err := decodeResult(envelope.Result)
	if err != nil {
		return nil, fmt.Errorf("decode result list: %w", err)
	}

	c.logger.Debug("page fetched", "area", q.Area, "page", q.Page, "articles", len(metas))
	return metas, nil
}

type apiResponse struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
}

type resultObject struct {
	CurPage int           `json:"curpage"`
	AllNum  int           `json:"allnum"`
	List    []ArticleMeta `json:"list"`
}

// decodeResult accepts both response shapes the API produces: an object
// carrying a list field, or a bare array.
func decodeResult(raw json.RawMessage) ([]ArticleMeta, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []ArticleMeta
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var obj resultObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, err
	}
	return obj.List, nil
}
