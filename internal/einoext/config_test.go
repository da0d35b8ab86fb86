package einoext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/pkg/config"
)

func TestRedisOptionsFromVectorConfig(t *testing.T) {
	opts, err := RedisOptionsFromVectorConfig(config.VectorConfig{DB: "2", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.Protocol)
	assert.True(t, opts.UnstableResp3)

	_, err = RedisOptionsFromVectorConfig(config.VectorConfig{DB: "x"})
	assert.Error(t, err)
}

func TestNewRetriever_Disabled(t *testing.T) {
	r, err := NewRetriever(context.Background(), config.VectorConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = NewRetriever(context.Background(), config.VectorConfig{Type: "milvus"}, nil, nil)
	assert.Error(t, err)

	_, err = NewRetriever(context.Background(), config.VectorConfig{Type: "redis"}, nil, nil)
	assert.Error(t, err)

	_, err = NewRetriever(context.Background(), config.VectorConfig{Type: "memory"}, nil, nil)
	assert.Error(t, err)
}
