package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextLoggerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	ctx = WithLogger(ctx, map[string]interface{}{"request_id": "abc"})

	InfoLog(ctx, "employee %d created", 10001)

	assert.Contains(t, buf.String(), `"request_id":"abc"`)
	assert.Contains(t, buf.String(), `"message":"employee 10001 created"`)
}

func TestErrorLogFormatsAllArgs(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	ErrorLog(ctx, "%s %s failed: %v", "GET", "/api/employees", errors.New("boom"))

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"message":"GET /api/employees failed: boom"`)
	assert.NotContains(t, buf.String(), "%!")
}

func TestErrorLogWithoutError(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	ErrorLog(ctx, "Database connection is nil")

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"message":"Database connection is nil"`)
	assert.NotContains(t, buf.String(), `"error"`)
}
