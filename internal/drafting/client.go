// Package drafting wraps the text-generation collaborator that prefills a
// submission's details field from a topic. The call is advisory: failure
// surfaces a notice and the citizen types the details by hand.
package drafting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Client produces a drafted details text for a request topic.
type Client interface {
	Draft(ctx context.Context, topic string) (string, error)
}

// Fixed prompt material, kept verbatim from the portal.
const (
	systemInstruction = "คุณคือเจ้าหน้าที่ผู้ช่วยอัจฉริยะของระบบ One Stop Service ทำหน้าที่ช่วยเหลือประชาชนในการเรียบเรียงคำร้องให้มีความสุภาพ ชัดเจน และระบุข้อมูลที่จำเป็น เช่น วันที่ เวลา สถานที่ และลักษณะปัญหา เพื่อให้เจ้าหน้าที่รัฐสามารถดำเนินการแก้ไขได้รวดเร็วขึ้น ตอบกลับเฉพาะข้อความที่เป็นรายละเอียดคำร้องเท่านั้น"
	promptPrefix      = "ช่วยเรียบเรียงรายละเอียดคำร้องสำหรับหัวข้อ \""
	promptSuffix      = "\" ให้หน่อย โดยเน้นความเป็นทางการและระบุข้อมูลที่ควรมีเพื่อให้เจ้าหน้าที่รัฐทำงานง่ายขึ้น"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

func NewGeminiClient(baseURL, model, apiKey string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
	}
}

type generateRequest struct {
	SystemInstruction content   `json:"system_instruction"`
	Contents          []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Draft(ctx context.Context, topic string) (string, error) {
	body := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Parts: []part{{Text: promptPrefix + topic + promptSuffix}}}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode drafting request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build drafting request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("drafting call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drafting call: unexpected status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode drafting response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("drafting call: empty response")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
