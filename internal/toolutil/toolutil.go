// Package toolutil provides shared helpers for the go_apply MCP tools and CLI:
// input validation, résumé/JD text loading and parallel page fetching.
package toolutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/go-playground/validator/v10"
)

// maxTextFileBytes bounds résumé and job description files read from disk.
const maxTextFileBytes = 2 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so errors match what the caller sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks struct tags on a tool input and flattens the failures
// into one readable error.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "required_without":
		return name + " or " + toSnake(fe.Param()) + " is required"
	case "datetime":
		return name + " must be a date like " + fe.Param()
	case "url", "http_url":
		return name + " must be a valid URL"
	case "oneof":
		return name + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}

// toSnake turns a Go field name from a validator param into its JSON spelling.
func toSnake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// LoadText returns text when set, otherwise the contents of a plain-text or
// Markdown file at path.
func LoadText(text, path, what string) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if path == "" {
		return "", fmt.Errorf("%s text or file path is required", what)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".txt", ".md", ".markdown":
	default:
		return "", fmt.Errorf("%s file %s: only .txt and .md files can be read as text", what, filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%s file: %w", what, err)
	}
	if info.Size() > maxTextFileBytes {
		return "", fmt.Errorf("%s file %s is larger than %d bytes", what, filepath.Base(path), maxTextFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%s file: %w", what, err)
	}
	return string(data), nil
}

// FetchPagesParallel fetches every URL not in skip and returns url → Markdown.
// Failed fetches are omitted.
func FetchPagesParallel(ctx context.Context, urls []string, skip map[string]bool) map[string]string {
	contents := make(map[string]string, len(urls))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, u := range urls {
		if u == "" || skip[u] {
			continue
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			page, err := engine.FetchPage(ctx, u)
			if err == nil && page.Markdown != "" {
				mu.Lock()
				contents[u] = page.Markdown
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()
	return contents
}
