// response/error.go
// This package provides utility functions and structures for handling and categorizing HTTP error responses.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// HeaderLogID is the response header that carries the platform request log id.
const HeaderLogID = "X-Tt-Logid"

// APIError represents an api error response.
type APIError struct {
	StatusCode      int              `json:"status_code"`           // HTTP status code
	Method          string           `json:"method"`                // HTTP method used for the request
	URL             string           `json:"url"`                   // The URL of the HTTP request
	Code            int              `json:"code,omitempty"`        // Business code from the envelope, if any
	Message         string           `json:"message"`               // Summary of the error
	LogID           string           `json:"log_id,omitempty"`      // Platform log id for support requests
	Troubleshooter  string           `json:"troubleshooter,omitempty"`
	FieldViolations []FieldViolation `json:"field_violations,omitempty"`
	RawResponse     string           `json:"raw_response"` // Raw response body for debugging
}

// Error returns a string representation of the APIError, making it compatible with the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("API Error: StatusCode=%d, Code=%d, Message=%s, LogID=%s", e.StatusCode, e.Code, e.Message, e.LogID)
	}
	return fmt.Sprintf("API Error: StatusCode=%d, Message=%s", e.StatusCode, e.Message)
}

// HandleAPIErrorResponse builds an APIError from a failed response whose
// body has already been read, and logs it.
func HandleAPIErrorResponse(resp *http.Response, bodyBytes []byte, log logger.Logger) *APIError {
	apiError := &APIError{
		StatusCode: resp.StatusCode,
		Message:    "API Error Response",
		LogID:      resp.Header.Get(HeaderLogID),
	}
	if resp.Request != nil {
		apiError.Method = resp.Request.Method
		apiError.URL = resp.Request.URL.String()
	}

	mimeType, _ := ParseContentTypeHeader(resp.Header.Get("Content-Type"))
	switch mimeType {
	case "application/json":
		parseJSONResponse(bodyBytes, apiError)
	case "application/xml", "text/xml":
		parseXMLResponse(bodyBytes, apiError)
	case "text/html":
		parseHTMLResponse(bodyBytes, apiError)
	case "text/plain":
		parseTextResponse(bodyBytes, apiError)
	default:
		// The gateway does not always label JSON bodies.
		if _, ok := ParseEnvelope(bodyBytes); ok {
			parseJSONResponse(bodyBytes, apiError)
		} else {
			apiError.RawResponse = string(bodyBytes)
			apiError.Message = "Unknown content type error"
		}
	}

	log.Debug("API error response parsed",
		zap.Int("status_code", apiError.StatusCode),
		zap.Int("code", apiError.Code),
		zap.String("message", apiError.Message),
		zap.String("log_id", apiError.LogID),
	)

	return apiError
}

// parseJSONResponse attempts to parse the JSON error response and update the APIError structure.
func parseJSONResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	env, ok := ParseEnvelope(bodyBytes)
	if !ok {
		var generic struct {
			Message string `json:"message"`
			Msg     string `json:"msg"`
		}
		if err := json.Unmarshal(bodyBytes, &generic); err == nil {
			apiError.Message = firstNonEmpty(generic.Message, generic.Msg, "An unknown error occurred")
		}
		return
	}

	apiError.Code = env.BusinessCode()
	apiError.Message = firstNonEmpty(env.Msg, "An unknown error occurred")
	if env.Error != nil {
		apiError.LogID = firstNonEmpty(env.Error.LogID, apiError.LogID)
		apiError.Troubleshooter = env.Error.Troubleshooter
		apiError.FieldViolations = env.Error.FieldViolations
	}
}

// parseXMLResponse dynamically parses XML error responses and accumulates potential error messages.
func parseXMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := xmlquery.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var traverse func(*xmlquery.Node)
	traverse = func(n *xmlquery.Node) {
		if n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) != "" {
			messages = append(messages, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	} else {
		apiError.Message = "Failed to extract error details from XML response"
	}
}

// parseTextResponse updates the APIError structure based on a plain text error response.
func parseTextResponse(bodyBytes []byte, apiError *APIError) {
	bodyText := strings.TrimSpace(string(bodyBytes))
	apiError.RawResponse = string(bodyBytes)
	apiError.Message = bodyText
}

// parseHTMLResponse extracts meaningful information from an HTML error page, such as
// a proxy or load balancer error, using the <title> and the text within <p> tags.
func parseHTMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var title string
	var messages []string
	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			case "p", "h1":
				if content := strings.TrimSpace(textContent(n)); content != "" {
					messages = append(messages, content)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)

	switch {
	case len(messages) > 0:
		apiError.Message = strings.Join(messages, "; ")
	case title != "":
		apiError.Message = title
	default:
		apiError.Message = "HTML Error: See 'Raw' field for details."
	}
}

// textContent concatenates the text below n. Links contribute their href.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			if text := strings.TrimSpace(c.Data); text != "" {
				b.WriteString(text + " ")
			}
		case c.Type == html.ElementNode && c.Data == "a":
			for _, attr := range c.Attr {
				if attr.Key == "href" {
					b.WriteString("[Link: " + attr.Val + "] ")
					break
				}
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
