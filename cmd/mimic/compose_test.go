package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mimic-ai/mimic/pkg/compose"
)

func TestComposeConfigValidate(t *testing.T) {
	assert.Error(t, NewComposeConfig().Validate())
	assert.NoError(t, (&ComposeConfig{Request: compose.Request{Persona: "backend-engineer"}}).Validate())
	assert.Error(t, (&ComposeConfig{Request: compose.Request{Persona: "backend-engineer"}, HTML: true, Render: true}).Validate())
}
