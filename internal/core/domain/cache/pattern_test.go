package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
)

func TestPattern_Match(t *testing.T) {
	p := cache.CompilePattern("health:user1:*")

	assert.True(t, p.Match("health:user1:steps:1"))
	assert.True(t, p.Match("health:user1:"))
	assert.False(t, p.Match("health:user2:steps:1"))
	assert.False(t, p.Match("xhealth:user1:steps"), "pattern must be anchored")
	assert.True(t, p.Match("health:user1:a\nb"), "'*' spans newlines in keys")
	assert.False(t, p.Match("health:user2\n:user1:a"))
}

func TestPattern_OnlyStarIsSpecial(t *testing.T) {
	p := cache.CompilePattern("a.b?[c]*")

	assert.True(t, p.Match("a.b?[c]tail"))
	assert.False(t, p.Match("aXb?[c]tail"))
	assert.False(t, p.Match("a.bZctail"))
}

func TestPattern_RedisGlob(t *testing.T) {
	assert.Equal(t, `health:u1:*`, cache.CompilePattern("health:u1:*").RedisGlob())
	assert.Equal(t, `k\?\[x\]\\*`, cache.CompilePattern(`k?[x]\*`).RedisGlob())
}
