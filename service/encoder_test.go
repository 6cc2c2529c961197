package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderArgs(t *testing.T) {
	args := renderArgs("p1.png", "page_01.wav", 10.0, "segment_01.mp4")

	assert.Equal(t, []string{
		"-y",
		"-loop", "1",
		"-i", "p1.png",
		"-i", "page_01.wav",
		"-t", "10.000",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		"segment_01.mp4",
	}, args)
}

func TestRenderArgs_FractionalDuration(t *testing.T) {
	args := renderArgs("p.png", "a.wav", 8.5, "s.mp4")
	assert.Contains(t, args, "8.500")
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs("segments.txt", "story.mp4")

	assert.Equal(t, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", "segments.txt",
		"-c", "copy",
		"story.mp4",
	}, args)
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	listFile := filepath.Join(dir, "assets", "segments.txt")

	segments := []string{
		filepath.Join(dir, "segment_01.mp4"),
		filepath.Join(dir, "segment_02.mp4"),
	}
	require.NoError(t, WriteConcatList(segments, listFile))

	data, err := os.ReadFile(listFile)
	require.NoError(t, err)

	expected := "file '" + filepath.ToSlash(segments[0]) + "'\n" +
		"file '" + filepath.ToSlash(segments[1]) + "'\n"
	assert.Equal(t, expected, string(data))
}

func TestFFmpegEncoder_ConcatSegmentsEmpty(t *testing.T) {
	encoder := NewFFmpegEncoder()
	err := encoder.ConcatSegments(context.Background(), nil, "list.txt", "out.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "没有视频片段")
}
