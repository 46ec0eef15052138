package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/wordfreq"
)

// apiClient talks to a running parts server. Used whenever --server is set so the CLI
// does not contend with the server for the SQLite and Bleve locks.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(serverURL string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(serverURL, "/"),
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

// apiError is a non-2xx response from the server.
type apiError struct {
	Status  int
	Message string
	Fields  []models.FieldError
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	for _, f := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
	}
	return msg
}

func (c *apiClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		var body struct {
			Error  string              `json:"error"`
			Fields []models.FieldError `json:"fields"`
		}
		if json.Unmarshal(b, &body) == nil && body.Error != "" {
			return &apiError{Status: resp.StatusCode, Message: body.Error, Fields: body.Fields}
		}
		return &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) get(path string, query url.Values, out interface{}) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) sendJSON(method, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *apiClient) ListParts(filter *models.ListFilter) (*models.PartPage, error) {
	var page models.PartPage
	if err := c.get("/api/v1/parts", filterValues(filter), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AllPages walks every page of a listing in order.
func (c *apiClient) AllPages(filter *models.ListFilter) (map[int][]*models.Part, int, error) {
	pages := make(map[int][]*models.Part)
	f := *filter
	f.Page = 1
	for {
		page, err := c.ListParts(&f)
		if err != nil {
			return nil, 0, err
		}
		pages[page.Page] = page.Items
		if page.Page >= page.TotalPages {
			return pages, page.TotalPages, nil
		}
		f.Page++
	}
}

func (c *apiClient) GetPart(id string) (*models.Part, error) {
	var p models.Part
	if err := c.get("/api/v1/parts/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *apiClient) GetPartBySKU(sku string) (*models.Part, error) {
	var p models.Part
	if err := c.get("/api/v1/parts/sku/"+url.PathEscape(sku), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *apiClient) CreatePart(in *models.PartInput) (*models.Part, error) {
	var p models.Part
	if err := c.sendJSON(http.MethodPost, "/api/v1/parts", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *apiClient) DeletePart(id string) error {
	req, err := http.NewRequest(http.MethodDelete, c.base+"/api/v1/parts/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *apiClient) Search(q *models.SearchQuery) (*models.SearchResponse, error) {
	v := url.Values{}
	v.Set("q", q.Query)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Fuzzy {
		v.Set("fuzzy", "true")
	}
	setIntPtr(v, "min_weight", q.MinWeight)
	setIntPtr(v, "max_weight", q.MaxWeight)
	var resp models.SearchResponse
	if err := c.get("/api/v1/parts/search", v, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) WordFrequency(id string, filter *models.ListFilter, minLength, topN int) ([]wordfreq.WordCount, error) {
	v := filterValues(filter)
	if id != "" {
		v.Set("id", id)
	}
	if minLength > 0 {
		v.Set("min_length", strconv.Itoa(minLength))
	}
	if topN > 0 {
		v.Set("top_n", strconv.Itoa(topN))
	}
	var out struct {
		Words []wordfreq.WordCount `json:"words"`
	}
	if err := c.get("/api/v1/parts/word-frequency", v, &out); err != nil {
		return nil, err
	}
	return out.Words, nil
}

// ImportFile uploads path as a multipart form; the server picks the format from the file name
// unless format is set.
func (c *apiClient) ImportFile(path string, format importer.Format) (*importer.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	u := c.base + "/api/v1/parts/import"
	if format != "" {
		u += "?format=" + url.QueryEscape(string(format))
	}
	req, err := http.NewRequest(http.MethodPost, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var res importer.Result
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) Status() (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.get("/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) ImportDirectories() ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.get("/api/v1/import/directories", nil, &out); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

func (c *apiClient) AddImportDirectory(path string, sync bool) error {
	return c.sendJSON(http.MethodPost, "/api/v1/import/directories",
		map[string]interface{}{"path": path, "sync": sync}, nil)
}

func (c *apiClient) RemoveImportDirectory(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.base+"/api/v1/import/directories?path="+url.QueryEscape(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func filterValues(f *models.ListFilter) url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	if f.Name != "" {
		v.Set("name", f.Name)
	}
	if f.SKU != "" {
		v.Set("sku", f.SKU)
	}
	setIntPtr(v, "is_active", f.IsActive)
	setIntPtr(v, "min_weight", f.MinWeight)
	setIntPtr(v, "max_weight", f.MaxWeight)
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return v
}

func setIntPtr(v url.Values, key string, p *int) {
	if p != nil {
		v.Set(key, strconv.Itoa(*p))
	}
}
