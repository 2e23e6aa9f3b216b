package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		1:           "1.0",
		0.2:         "0.2",
		10:          "10.0",
		0.6175:      "0.6175",
		-3:          "-3.0",
		0.0001:      "0.0001",
		0.00001:     "1e-05",
		1e16:        "1e+16",
		1.5e16:      "1.5e+16",
		0:           "0.0",
		math.Inf(1): "inf",
	}
	for value, expected := range cases {
		assert.Equal(t, expected, FormatFloat(value), "value %v", value)
	}
	assert.Equal(t, "nan", FormatFloat(math.NaN()))
	assert.Equal(t, "-inf", FormatFloat(math.Inf(-1)))
}

func TestFormatOptional(t *testing.T) {
	value := 0.5
	text := "boom"
	assert.Equal(t, "", FormatOptionalFloat(nil))
	assert.Equal(t, "0.5", FormatOptionalFloat(&value))
	assert.Equal(t, "", FormatOptionalString(nil))
	assert.Equal(t, "boom", FormatOptionalString(&text))
}

func TestTruncate_CountsCharacters(t *testing.T) {
	assert.Equal(t, "hé", Truncate("héllo", 2))
	assert.Equal(t, "αβγ", Truncate("αβγ", 3))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "unlimited", Truncate("unlimited", 0))
}

func TestErrorSummary_Trimmed(t *testing.T) {
	assert.Equal(t, "Traceback", ErrorSummary("out", "  Traceback (most recent call last)\n", 9, true))
	assert.Equal(t, "only stdout", ErrorSummary("\n only stdout \n", " \n\t", 100, true))
	assert.Equal(t, "", ErrorSummary("  ", "", 100, true))
}

func TestErrorSummary_Untrimmed(t *testing.T) {
	assert.Equal(t, "  err\n", ErrorSummary("out", "  err\n", 100, false))
	assert.Equal(t, " \n\t", ErrorSummary("out", " \n\t", 100, false))
	assert.Equal(t, "\n out", ErrorSummary("\n out put", "", 5, false))
}

func TestDebugSnippet(t *testing.T) {
	assert.Equal(t, "", DebugSnippet("", 3))
	assert.Equal(t, "abc", DebugSnippet("abc", 3))
	assert.Equal(t, "abc", DebugSnippet("abcdef", 3))
	assert.Equal(t, "abc\n...\nhij", DebugSnippet("abcdefghij", 3))
}

func TestTimestamp(t *testing.T) {
	withMicros := time.Date(2025, 10, 30, 0, 35, 43, 123456789, time.Local)
	assert.Equal(t, "2025-10-30T00:35:43.123456", Timestamp(withMicros))
	assert.Equal(t, "20251030_003543", FileTimestamp(withMicros))

	whole := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)
	assert.Equal(t, "2025-01-02T03:04:05", Timestamp(whole))

	subMicro := time.Date(2025, 1, 2, 3, 4, 5, 999, time.Local)
	assert.Equal(t, "2025-01-02T03:04:05", Timestamp(subMicro))

	assert.Equal(t, "2025-01-02T03:04:05.000010", Timestamp(whole.Add(10*time.Microsecond)))
}
