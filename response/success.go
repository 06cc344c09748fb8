// response/success.go
/* Responsible for handling successful API responses. It decodes the envelope's data block into the
endpoint's own type, or hands binary downloads to the caller untouched. */
package response

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"go.uber.org/zap"
)

// contentHandler defines the signature for unmarshaling content from a body.
type contentHandler func([]byte, any, logger.Logger, string) error

// responseUnmarshallers maps MIME types to the corresponding contentHandler functions.
var responseUnmarshallers = map[string]contentHandler{
	"application/json": handlerUnmarshalJSON,
	"application/xml":  handlerUnmarshalXML,
	"text/xml":         handlerUnmarshalXML,
}

// HandleAPISuccessResponse decodes a successful body into out. JSON bodies are
// treated as envelopes and only their data block is decoded. A nil out
// discards the body.
func HandleAPISuccessResponse(header http.Header, method string, bodyBytes []byte, out any, log logger.Logger) error {
	if out == nil {
		return nil
	}
	if method == http.MethodDelete && len(bytes.TrimSpace(bodyBytes)) == 0 {
		log.Debug("Successfully processed DELETE request with empty body")
		return nil
	}

	contentType := header.Get("Content-Type")
	contentDisposition := header.Get("Content-Disposition")
	contentTypeNoParams, _ := ParseContentTypeHeader(contentType)

	if isBinaryData(contentType, contentDisposition) {
		return handleBinaryData(bodyBytes, log, out, contentDisposition)
	}

	if handler, ok := responseUnmarshallers[contentTypeNoParams]; ok {
		return handler(bodyBytes, out, log, contentType)
	}

	// Some endpoints answer JSON without a content type.
	if _, ok := ParseEnvelope(bodyBytes); ok {
		return handlerUnmarshalJSON(bodyBytes, out, log, contentType)
	}

	errMsg := fmt.Sprintf("unexpected MIME type: %s", contentType)
	return log.Error("Unmarshal error", zap.String("content_type", contentType), zap.Error(errors.New(errMsg)))
}

// DecodeEnvelopeData decodes the data block of an envelope into out. A body
// that is not an envelope is decoded as a whole.
func DecodeEnvelopeData(bodyBytes []byte, out any) error {
	env, ok := ParseEnvelope(bodyBytes)
	if !ok {
		return json.Unmarshal(bodyBytes, out)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// handlerUnmarshalJSON unmarshals the envelope data into the provided output structure.
func handlerUnmarshalJSON(bodyBytes []byte, out any, log logger.Logger, mimeType string) error {
	if err := DecodeEnvelopeData(bodyBytes, out); err != nil {
		return log.Error("JSON Unmarshal error", zap.String("content_type", mimeType), zap.Error(err))
	}
	log.Debug("Successfully unmarshalled JSON response", zap.String("content_type", mimeType))
	return nil
}

// handlerUnmarshalXML unmarshals XML content into the provided output structure.
func handlerUnmarshalXML(bodyBytes []byte, out any, log logger.Logger, mimeType string) error {
	if err := xml.Unmarshal(bodyBytes, out); err != nil {
		return log.Error("XML Unmarshal error", zap.String("content_type", mimeType), zap.Error(err))
	}
	log.Debug("Successfully unmarshalled XML response", zap.String("content_type", mimeType))
	return nil
}

// isBinaryData checks if the MIME type or Content-Disposition indicates binary data.
// File and image downloads carry their own MIME type with an attachment disposition.
func isBinaryData(contentType, contentDisposition string) bool {
	mimeType, _ := ParseContentTypeHeader(contentType)
	disposition, _ := ParseContentDisposition(contentDisposition)
	return mimeType == "application/octet-stream" || disposition == "attachment"
}

// handleBinaryData stores binary data in *[]byte or streams it to an io.Writer.
func handleBinaryData(bodyBytes []byte, log logger.Logger, out any, contentDisposition string) error {
	switch out := out.(type) {
	case *[]byte:
		*out = append((*out)[:0], bodyBytes...)

	case io.Writer:
		if _, err := io.Copy(out, bytes.NewReader(bodyBytes)); err != nil {
			return log.Error("Failed to stream binary data to io.Writer", zap.Error(err))
		}

	default:
		return errors.New("output parameter is not suitable for binary data (*[]byte or io.Writer)")
	}

	if contentDisposition != "" {
		_, params := ParseContentDisposition(contentDisposition)
		if filename, ok := params["filename"]; ok {
			log.Debug("Extracted filename from Content-Disposition", zap.String("filename", filename))
		}
	}

	return nil
}
