package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 9090, ParseIntDefault("9090", 1))
	assert.Equal(t, 9090, ParseIntDefault(" 9090 ", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("port", 1))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT"}, SplitList(" AAPL, ,MSFT,"))
	assert.Nil(t, SplitList(""))
}
