package infrastructure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"uvcal/internal/infrastructure"
)

func TestBatchIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, infrastructure.GetBatchID(ctx))

	ctx = infrastructure.WithBatchID(ctx, "batch-42")
	assert.Equal(t, "batch-42", infrastructure.GetBatchID(ctx))
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	assert.NotNil(t, infrastructure.GetLogger())
}
