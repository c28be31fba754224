package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeKnownCode(t *testing.T) {
	assert.Equal(t, "Type 2 diabetes mellitus without complications", Describe("E11.9"))
	assert.Equal(t, "Essential (primary) hypertension", Describe("I10"))
}

func TestDescribeUnknownCodeReturnsSentinel(t *testing.T) {
	assert.Equal(t, NotFound, Describe("Z99.999"))
	assert.Equal(t, NotFound, Describe(""))
	assert.Equal(t, NotFound, Describe("not a code"))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("I63.9"))
	assert.False(t, Known("Q00.000"))
}

func TestDescribeAll(t *testing.T) {
	got := DescribeAll([]string{"E11.9", "X99.9"})
	assert.Equal(t, "Type 2 diabetes mellitus without complications", got["E11.9"])
	assert.Equal(t, NotFound, got["X99.9"])
	assert.Len(t, got, 2)
}

func TestTableNotEmpty(t *testing.T) {
	assert.Greater(t, Size(), 50)
}
