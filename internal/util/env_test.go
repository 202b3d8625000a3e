package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV", "value")
	assert.Equal(t, "value", util.GetEnv("TEST_GET_ENV", "default"))
	assert.Equal(t, "default", util.GetEnv("TEST_GET_ENV_UNSET", "default"))

	t.Setenv("TEST_GET_ENV_EMPTY", "")
	assert.Equal(t, "default", util.GetEnv("TEST_GET_ENV_EMPTY", "default"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_GET_ENV_INT", "42")
	assert.Equal(t, 42, util.GetEnvAsInt("TEST_GET_ENV_INT", 7))
	assert.Equal(t, 7, util.GetEnvAsInt("TEST_GET_ENV_INT_UNSET", 7))

	t.Setenv("TEST_GET_ENV_INT_BAD", "forty-two")
	assert.Equal(t, 7, util.GetEnvAsInt("TEST_GET_ENV_INT_BAD", 7))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_GET_ENV_BOOL", "true")
	assert.True(t, util.GetEnvAsBool("TEST_GET_ENV_BOOL", false))

	t.Setenv("TEST_GET_ENV_BOOL_BAD", "yep")
	assert.True(t, util.GetEnvAsBool("TEST_GET_ENV_BOOL_BAD", true))
}

func TestGetEnvAsStringArr(t *testing.T) {
	t.Setenv("TEST_GET_ENV_ARR", "a, b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, util.GetEnvAsStringArr("TEST_GET_ENV_ARR", nil))

	assert.Equal(t, []string{"x"}, util.GetEnvAsStringArr("TEST_GET_ENV_ARR_UNSET", []string{"x"}))

	t.Setenv("TEST_GET_ENV_ARR_BLANK", " , ,")
	assert.Equal(t, []string{"x"}, util.GetEnvAsStringArr("TEST_GET_ENV_ARR_BLANK", []string{"x"}))
}
