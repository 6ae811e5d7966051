package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nai-labs/nai/internal/config"
	"github.com/nai-labs/nai/internal/job"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// EncodePayload converts a payload setting into a request body.
//
// Without form, a valid JSON document is sent as application/json and any
// other string is sent raw with no Content-Type. With form, a JSON object is
// flattened into url-encoded key/value pairs; a non-JSON payload is assumed to
// be url-encoded already.
func EncodePayload(payload string, form bool) ([]byte, string, error) {
	if payload == "" {
		return nil, "", nil
	}

	isJSON := gjson.Valid(payload)
	if !form {
		if isJSON {
			return []byte(payload), ContentTypeJSON, nil
		}
		return []byte(payload), "", nil
	}

	if !isJSON {
		return []byte(payload), ContentTypeForm, nil
	}

	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return nil, "", fmt.Errorf("form payload must be a JSON object, got %s", doc.Type)
	}

	values := url.Values{}
	doc.ForEach(func(key, value gjson.Result) bool {
		if value.IsArray() {
			for _, item := range value.Array() {
				values.Add(key.String(), item.String())
			}
			return true
		}
		values.Add(key.String(), value.String())
		return true
	})
	return []byte(values.Encode()), ContentTypeForm, nil
}

// DefaultDescriptor builds the run's default job from configuration. Header
// keys are canonicalized; an explicit Content-Type header wins over the one
// implied by the payload.
func DefaultDescriptor(cfg *config.Config) (job.Descriptor, error) {
	if cfg == nil {
		return job.Descriptor{}, fmt.Errorf("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return job.Descriptor{}, fmt.Errorf("target URL is required")
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := EncodePayload(cfg.Payload, cfg.Form)
	if err != nil {
		return job.Descriptor{}, fmt.Errorf("payload: %w", err)
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	for key, value := range cfg.Headers {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || strings.ContainsAny(trimmed, "\r\n") {
			return job.Descriptor{}, fmt.Errorf("invalid header key %q", key)
		}
		canonical := http.CanonicalHeaderKey(trimmed)
		if strings.ContainsAny(value, "\r\n") {
			return job.Descriptor{}, fmt.Errorf("invalid header value for %s", canonical)
		}
		headers[canonical] = value
	}

	return job.Descriptor{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    body,
	}, nil
}
