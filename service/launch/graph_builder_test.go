package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestinationURL(t *testing.T) {
	assert.Equal(t, "https://shop.example.com/landing",
		destinationURL("https://shop.example.com/landing", ""))
	assert.Equal(t, "https://shop.example.com/landing?utm_source=fb",
		destinationURL("https://shop.example.com/landing", "utm_source=fb"))
	assert.Equal(t, "https://shop.example.com/landing?utm_source=fb",
		destinationURL("https://shop.example.com/landing", "?utm_source=fb"))
	assert.Equal(t, "https://shop.example.com/landing?a=1&utm_source=fb",
		destinationURL("https://shop.example.com/landing?a=1", "utm_source=fb"))
}

func TestSplitGeoTarget(t *testing.T) {
	assert.Equal(t, []string{"US", "CA", "GB"}, splitGeoTarget("US, CA ,GB"))
	assert.Equal(t, []string{}, splitGeoTarget(""))
	assert.Equal(t, []string{"US"}, splitGeoTarget("US,,"))
}

func TestRotateCopyEntries(t *testing.T) {
	entries := []string{"first", "second"}
	assert.Equal(t, "first", rotate(entries, 0))
	assert.Equal(t, "second", rotate(entries, 1))
	assert.Equal(t, "first", rotate(entries, 2))
	assert.Equal(t, "", rotate(nil, 0))
}
