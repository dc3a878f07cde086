package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOf(t *testing.T) {
	tests := []struct {
		typ  Type
		want []Type
	}{
		{TypeTPV, []Type{TypeTPV, TypeReport, TypeMessage}},
		{TypeSKY, []Type{TypeSKY, TypeReport, TypeMessage}},
		{TypeWatch, []Type{TypeWatch, TypeCommand, TypeMessage}},
		{TypePoll, []Type{TypePoll, TypeCommand, TypeMessage}},
		{TypeError, []Type{TypeError, TypeMessage}},
		{TypeReport, []Type{TypeReport, TypeMessage}},
		{TypeMessage, []Type{TypeMessage}},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ChainOf(tt.typ))
		})
	}
}

func TestEveryChainEndsAtRoot(t *testing.T) {
	for _, typ := range Types() {
		chain := ChainOf(typ)
		require.NotEmpty(t, chain, typ.String())
		assert.Equal(t, typ, chain[0])
		assert.Equal(t, TypeMessage, chain[len(chain)-1])
	}
}

func TestTags(t *testing.T) {
	for _, typ := range Types() {
		tag := TagOf(typ)
		if !IsConcrete(typ) {
			assert.Empty(t, tag, "abstract %s has a tag", typ)
			continue
		}

		require.NotEmpty(t, tag)
		assert.Equal(t, typ.String(), tag)

		back, ok := TypeForTag(tag)
		require.True(t, ok)
		assert.Equal(t, typ, back)

		msg, err := New(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, msg.Type())
	}

	_, ok := TypeForTag("AIS")
	assert.False(t, ok)
}

func TestNewAbstract(t *testing.T) {
	for _, typ := range []Type{TypeMessage, TypeReport, TypeCommand, Type(200)} {
		_, err := New(typ)
		assert.Error(t, err)
	}
}

func TestCategories(t *testing.T) {
	for _, typ := range Types() {
		if !IsConcrete(typ) {
			continue
		}
		msg, err := New(typ)
		require.NoError(t, err)

		_, isReport := msg.(Report)
		_, isCommand := msg.(Command)
		assert.Equal(t, IsA(typ, TypeReport), isReport, typ.String())
		assert.Equal(t, IsA(typ, TypeCommand), isCommand, typ.String())
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "TPV", TypeTPV.String())
	assert.Equal(t, "Message", TypeMessage.String())
	assert.Equal(t, "UNKNOWN", Type(250).String())
}
