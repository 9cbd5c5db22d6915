package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDependencyStatusHidesCause(t *testing.T) {
	assert.Equal(t, "ok", dependencyStatus("database", nil))

	cause := errors.New(`failed to connect to host=db.internal user=library password=hunter2`)
	status := dependencyStatus("database", cause)
	assert.Equal(t, "unavailable", status)
	assert.NotContains(t, status, "hunter2")
}
