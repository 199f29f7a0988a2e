package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSVGSizeFromViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect/></svg>`)

	out, err := EnsureSVGSize(svg, 0, 0)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `width="100px"`)
	assert.Contains(t, s, `height="50px"`)
	assert.Contains(t, s, "<rect", "content must be preserved")
}

func TestEnsureSVGSizeExplicitOverride(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"/>`)

	out, err := EnsureSVGSize(svg, 200, 100)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `width="200px"`)
	assert.Contains(t, s, `height="100px"`)
	assert.NotContains(t, s, `width="100px"`)
}

func TestEnsureSVGSizeReplacesExisting(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1" viewBox="0 0 10 20"/>`)

	out, err := EnsureSVGSize(svg, 0, 0)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `width="10px"`)
	assert.Contains(t, s, `height="20px"`)
	assert.Equal(t, 1, strings.Count(s, "width="), "width attribute must not be duplicated")
}

func TestEnsureSVGSizeFractionalViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.5 50.25"/>`)

	out, err := EnsureSVGSize(svg, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, string(out), `width="100.5px"`)
	assert.Contains(t, string(out), `height="50.25px"`)
}

func TestEnsureSVGSizeNoViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)

	out, err := EnsureSVGSize(svg, 0, 0)
	assert.Error(t, err)
	assert.Equal(t, svg, out, "input returned unchanged on error")
}

func TestEnsureSVGSizeNotSVG(t *testing.T) {
	_, err := EnsureSVGSize([]byte(`<html/>`), 100, 100)
	assert.Error(t, err)
}

func TestEnsureSVGSizeMalformed(t *testing.T) {
	_, err := EnsureSVGSize([]byte(`<svg`), 100, 100)
	assert.Error(t, err)
}
