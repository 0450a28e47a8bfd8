package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
)

const bodyField = "body"

// DecodeBody parses JSON and urlencoded bodies into Context.Body. Other
// content types leave the body empty. Bodies over limit are rejected.
func DecodeBody(limit int64) Stage {
	return NewStage("body", func(c *Context) error {
		req := c.Request()
		if req.Body == nil || !carriesBody(req.Method) {
			return nil
		}

		raw, err := io.ReadAll(http.MaxBytesReader(c.gin.Writer, req.Body, limit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return Validation([]FieldViolation{{Field: bodyField, Location: bodyField, Message: "Request body too large"}})
			}
			return Internal(err)
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))

		if len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}

		mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
		switch mediaType {
		case "application/json", "":
			body, err := decodeJSONObject(raw)
			if err != nil {
				return err
			}
			c.Body = body
		case "application/x-www-form-urlencoded":
			form, err := url.ParseQuery(string(raw))
			if err != nil {
				return Validation([]FieldViolation{{Field: bodyField, Location: bodyField, Message: "Invalid form payload"}})
			}
			c.Body = formToMap(form)
		}
		return nil
	})
}

func decodeJSONObject(raw []byte) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, Validation([]FieldViolation{{Field: bodyField, Location: bodyField, Message: "Invalid JSON payload"}})
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, Validation([]FieldViolation{{Field: bodyField, Location: bodyField, Message: "Request body must be a JSON object"}})
	}
	return obj, nil
}

func formToMap(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for key, values := range form {
		if len(values) == 1 {
			out[key] = values[0]
			continue
		}
		items := make([]any, len(values))
		for i, v := range values {
			items[i] = v
		}
		out[key] = items
	}
	return out
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
