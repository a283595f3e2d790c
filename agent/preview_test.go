package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewCreateNewFile(t *testing.T) {
	env := newFakeEnv()
	preview := BuildPreview("write_file", &WriteFileArgs{
		FilePath: "new.txt",
		Content:  "hello\nworld",
	}, env)

	assert.Contains(t, preview, "Create new.txt")
	assert.Contains(t, preview, "+ hello")
	assert.Contains(t, preview, "+ world")
	assert.False(t, env.FileExists("new.txt"), "preview must not write")
}

func TestPreviewOverwriteShowsDiff(t *testing.T) {
	env := newFakeEnv()
	require.NoError(t, env.WriteFile("f.txt", "alpha\nbeta\n"))

	preview := BuildPreview("write_file", &WriteFileArgs{
		FilePath: "f.txt",
		Content:  "alpha\ngamma\n",
	}, env)

	assert.Contains(t, preview, "Overwrite f.txt")
	assert.Contains(t, preview, "-beta")
	assert.Contains(t, preview, "+gamma")

	current, err := env.ReadFileRaw("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n", current, "preview must not write")
}

func TestPreviewEditShowsDiff(t *testing.T) {
	env := newFakeEnv()
	require.NoError(t, env.WriteFile("f.go", "package main\n\nfunc old() {}\n"))

	preview := BuildPreview("edit_file", &EditFileArgs{
		FilePath:  "f.go",
		OldString: "func old() {}",
		NewString: "func renamed() {}",
	}, env)

	assert.Contains(t, preview, "Edit f.go")
	assert.Contains(t, preview, "-func old() {}")
	assert.Contains(t, preview, "+func renamed() {}")
}

func TestPreviewMultiEditCombinesEdits(t *testing.T) {
	env := newFakeEnv()
	require.NoError(t, env.WriteFile("f.txt", "one\ntwo\nthree\n"))

	preview := BuildPreview("multiedit", &MultiEditArgs{
		FilePath: "f.txt",
		Edits: []EditOp{
			{OldString: "one", NewString: "uno"},
			{OldString: "three", NewString: "tres"},
		},
	}, env)

	assert.Contains(t, preview, "Apply 2 edits to f.txt")
	assert.Contains(t, preview, "+uno")
	assert.Contains(t, preview, "+tres")
}

func TestPreviewFallsBackToArguments(t *testing.T) {
	preview := BuildPreview("mystery", &spyArgs{Value: "x"}, newFakeEnv())
	assert.Contains(t, preview, "mystery")
	assert.Contains(t, preview, "x")
}

func TestPreviewWriteTruncatesLongContent(t *testing.T) {
	var content string
	for i := 0; i < 50; i++ {
		content += "line\n"
	}
	preview := BuildPreview("write_file", &WriteFileArgs{FilePath: "big.txt", Content: content}, newFakeEnv())
	assert.Contains(t, preview, "more lines")
}
