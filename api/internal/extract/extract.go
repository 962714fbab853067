// Package extract locates the JSON object embedded in a free-text model reply.
//
// Two modes are supported. ModeBalanced walks the text with a brace-depth
// scanner that understands JSON strings and returns the first balanced
// top-level object that decodes. ModeSpan keeps the historical first-'{' to
// last-'}' slice, which merges several objects into one blob and then fails.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/util"
)

type Mode string

const (
	ModeBalanced Mode = "balanced"
	ModeSpan     Mode = "span"
)

const op = "extract"

// Object returns the first JSON object found in text. Numbers are kept as
// json.Number. Any failure is an apperr.KindExtraction error.
func Object(text string, mode Mode) (map[string]any, error) {
	s := util.StripCodeFences(text)
	if mode == ModeSpan {
		return span(s)
	}
	return balanced(s)
}

func span(s string) (map[string]any, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return nil, apperr.New(apperr.KindExtraction, op, errors.New("no JSON object in reply"))
	}
	obj, err := decodeObject(s[start : end+1])
	if err != nil {
		return nil, apperr.New(apperr.KindExtraction, op, err)
	}
	return obj, nil
}

func balanced(s string) (map[string]any, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, apperr.New(apperr.KindExtraction, op, errors.New("no JSON object in reply"))
	}

	// After a failed span the scan resumes at the next '{' byte, which may sit
	// inside a string of that span, so an object quoted in a broken reply can
	// be returned.
	// Many unclosed braces make this quadratic, which is acceptable for replies
	// bounded by the output token cap.
	lastErr := errors.New("unbalanced braces")
	for start >= 0 {
		if end, ok := closingBrace(s, start); ok {
			obj, err := decodeObject(s[start : end+1])
			if err == nil {
				return obj, nil
			}
			lastErr = err
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, apperr.New(apperr.KindExtraction, op, lastErr)
}

// closingBrace returns the index of the '}' that balances the '{' at start.
func closingBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func decodeObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("bad JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("bad JSON: trailing data after object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bad JSON: want object, got %T", v)
	}
	return obj, nil
}
