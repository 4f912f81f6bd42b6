package unstructured

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"esgrag/internal/extract"
)

const partitionPath = "/general/v0/general"

// Client partitions PDF reports through the Unstructured API. Figures are
// returned base64-encoded and written to imageDir.
type Client struct {
	baseURL  string
	apiKey   string
	imageDir string
	client   *http.Client
}

func NewClient(baseURL, apiKey, imageDir string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		imageDir: imageDir,
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

type element struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber    int    `json:"page_number"`
		ImageBase64   string `json:"image_base64"`
		ImageMIMEType string `json:"image_mime_type"`
	} `json:"metadata"`
}

// tags maps Unstructured element types to pipeline kinds.
var tags = map[string]extract.Kind{
	"NarrativeText": extract.KindNarrativeText,
	"Image":         extract.KindImage,
	"Table":         extract.KindTable,
}

func (c *Client) Extract(ctx context.Context, documentPath string) ([]extract.Element, error) {
	body, contentType, err := c.buildForm(documentPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+partitionPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("unstructured-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", documentPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unstructured api error: %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var raw []element
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode partition response: %w", err)
	}

	return c.convert(figureDir(c.imageDir, documentPath), raw)
}

func (c *Client) buildForm(documentPath string) (io.Reader, string, error) {
	f, err := os.Open(filepath.Clean(documentPath)) // #nosec G304 -- path is from application config
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("files", filepath.Base(documentPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"strategy":                  "hi_res",
		"extract_image_block_types": `["Image"]`,
		"infer_table_structure":     "true",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) convert(dir string, raw []element) ([]extract.Element, error) {
	out := make([]extract.Element, 0, len(raw))
	figures := make(map[int]int)

	for _, r := range raw {
		kind, ok := tags[r.Type]
		if !ok {
			continue
		}
		el := extract.Element{Kind: kind, PageNumber: r.Metadata.PageNumber, Text: r.Text}

		if kind == extract.KindImage {
			if r.Metadata.ImageBase64 == "" {
				continue
			}
			figures[el.PageNumber]++
			path, err := saveFigure(dir, el.PageNumber, figures[el.PageNumber], r.Metadata.ImageMIMEType, r.Metadata.ImageBase64)
			if err != nil {
				return nil, err
			}
			el.ImagePath = path
		}
		out = append(out, el)
	}
	return out, nil
}

// figureDir is the per-document folder for figures under imageDir. The suffix
// separates equal file names in different folders.
func figureDir(imageDir, documentPath string) string {
	stem := strings.TrimSuffix(filepath.Base(documentPath), filepath.Ext(documentPath))
	abs, err := filepath.Abs(documentPath)
	if err != nil {
		abs = documentPath
	}
	sum := uuid.NewSHA1(uuid.NameSpaceURL, []byte(abs)).String()[:8]
	return filepath.Join(imageDir, stem+"-"+sum)
}

func saveFigure(dir string, page, n int, mimeType, data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode figure on page %d: %w", page, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	ext := "jpg"
	if mimeType == "image/png" {
		ext = "png"
	}
	path := filepath.Join(dir, fmt.Sprintf("figure-%d-%d.%s", page, n, ext))
	if err := os.WriteFile(path, decoded, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
