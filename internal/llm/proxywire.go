package llm

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ProxyStreamPath and ProxyGeneratePath are the routes served by the proxy.
const (
	ProxyStreamPath   = "/api/gemini/stream"
	ProxyGeneratePath = "/api/gemini/generate"
)

// ProxyRequest is the body accepted by the proxy: {model, contents, config}.
type ProxyRequest struct {
	Model    string                `json:"model"`
	Contents ProxyContents         `json:"contents"`
	Config   ProxyGenerationConfig `json:"config"`
}

// ProxyGenerationConfig mirrors the subset of Gemini's generation config the
// proxy understands.
type ProxyGenerationConfig struct {
	SystemInstruction ProxyText      `json:"systemInstruction,omitempty"`
	ResponseMIMEType  string         `json:"responseMimeType,omitempty"`
	ResponseSchema    map[string]any `json:"responseSchema,omitempty"`
	SchemaName        string         `json:"schemaName,omitempty"`
	Temperature       float64        `json:"temperature,omitempty"`
	MaxOutputTokens   int            `json:"maxOutputTokens,omitempty"`
}

// ProxyContent is one turn of the conversation.
type ProxyContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []ProxyPart `json:"parts"`
}

// ProxyPart is a text part of a turn.
type ProxyPart struct {
	Text string `json:"text"`
}

// ProxyContents accepts either a bare string (a single user turn) or a list
// of turns.
type ProxyContents []ProxyContent

func (c *ProxyContents) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ProxyContents{{Role: "user", Parts: []ProxyPart{{Text: s}}}}
		return nil
	}
	var list []ProxyContent
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("contents must be a string or a list of turns: %w", err)
	}
	*c = list
	return nil
}

// ProxyText accepts either a string or a content object with text parts.
type ProxyText string

func (t *ProxyText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = ProxyText(s)
		return nil
	}
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var content ProxyContent
	if err := json.Unmarshal(b, &content); err != nil {
		return fmt.Errorf("systemInstruction must be a string or content: %w", err)
	}
	*t = ProxyText(content.text())
	return nil
}

func (c ProxyContent) text() string {
	var b bytes.Buffer
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// NewProxyRequest encodes req for the wire.
func NewProxyRequest(model string, req Request) ProxyRequest {
	pr := ProxyRequest{
		Model: model,
		Config: ProxyGenerationConfig{
			SystemInstruction: ProxyText(req.System),
			Temperature:       req.Temperature,
			MaxOutputTokens:   req.MaxTokens,
		},
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		pr.Contents = append(pr.Contents, ProxyContent{Role: role, Parts: []ProxyPart{{Text: m.Content}}})
	}
	if req.Schema != nil {
		pr.Config.ResponseMIMEType = "application/json"
		pr.Config.ResponseSchema = req.Schema.Definition
		pr.Config.SchemaName = req.Schema.Name
	}
	return pr
}

// Request decodes the wire form back into a Request.
func (pr ProxyRequest) Request() Request {
	req := Request{
		Model:       pr.Model,
		System:      string(pr.Config.SystemInstruction),
		Temperature: pr.Config.Temperature,
		MaxTokens:   pr.Config.MaxOutputTokens,
	}
	for _, c := range pr.Contents {
		role := RoleUser
		if c.Role == "model" || c.Role == "assistant" {
			role = RoleAssistant
		}
		req.Messages = append(req.Messages, Message{Role: role, Content: c.text()})
	}
	if len(pr.Config.ResponseSchema) > 0 {
		req.Schema = &Schema{
			Name:       schemaKey(pr.Config.SchemaName, pr.Config.ResponseSchema),
			Definition: pr.Config.ResponseSchema,
		}
	}
	return req
}

// schemaKey derives the validation cache key for a schema received over the
// wire. Clients choose names freely, so the key includes a digest of the
// definition.
func schemaKey(name string, def map[string]any) string {
	if name == "" {
		name = "anon"
	}
	b, _ := json.Marshal(def)
	sum := sha256.Sum256(b)
	return name + "-" + hex.EncodeToString(sum[:8])
}
