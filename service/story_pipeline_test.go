package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/difyz9/story2video/model"
)

// fakeSynthesizer 按调用顺序返回预置的PCM缓冲区，记录每次请求
type fakeSynthesizer struct {
	buffers  []*audio.IntBuffer
	failAt   int // 第几次调用返回错误，0表示不失败
	requests []SynthRequest
}

func (fs *fakeSynthesizer) Synthesize(ctx context.Context, req SynthRequest) (*audio.IntBuffer, error) {
	fs.requests = append(fs.requests, req)
	call := len(fs.requests)
	if fs.failAt != 0 && call == fs.failAt {
		return nil, fmt.Errorf("推理服务宕机")
	}
	return fs.buffers[call-1], nil
}

func (fs *fakeSynthesizer) EngineName() string { return "fake" }

func (fs *fakeSynthesizer) ValidateConfig() error { return nil }

// fakeEncoder 记录渲染与拼接调用，并创建空的输出文件
type fakeEncoder struct {
	renders []renderCall
	concats []concatCall
}

type renderCall struct {
	imagePath  string
	audioPath  string
	duration   float64
	outputPath string
}

type concatCall struct {
	segments   []string
	listFile   string
	outputPath string
}

func (fe *fakeEncoder) RenderSegment(ctx context.Context, imagePath, audioPath string, duration float64, outputPath string) error {
	fe.renders = append(fe.renders, renderCall{imagePath, audioPath, duration, outputPath})
	return os.WriteFile(outputPath, []byte("mp4"), 0644)
}

func (fe *fakeEncoder) ConcatSegments(ctx context.Context, segments []string, listFile, outputPath string) error {
	fe.concats = append(fe.concats, concatCall{segments, listFile, outputPath})
	if err := WriteConcatList(segments, listFile); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0644)
}

// setupStory 在临时目录写入故事文件和页面图片，返回可运行的配置
func setupStory(t *testing.T, pages []model.Page, language string) *model.Config {
	t.Helper()
	dir := t.TempDir()

	for _, page := range pages {
		imagePath := filepath.Join(dir, page.Image)
		require.NoError(t, os.MkdirAll(filepath.Dir(imagePath), 0755))
		require.NoError(t, os.WriteFile(imagePath, []byte("png"), 0644))
	}

	storyPath := filepath.Join(dir, "story.json")
	story := struct {
		Language string       `json:"language,omitempty"`
		Pages    []model.Page `json:"pages"`
	}{Language: language, Pages: pages}
	data, err := json.Marshal(story)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(storyPath, data, 0644))

	return &model.Config{
		StoryFile: storyPath,
		Output: model.OutputConfig{
			VideoFile: filepath.Join(dir, "out", "story.mp4"),
			AudioFile: filepath.Join(dir, "out", "story_narration.wav"),
			AssetsDir: filepath.Join(dir, "out", "story_assets"),
		},
	}
}

func TestStoryPipeline_Run(t *testing.T) {
	config := setupStory(t, []model.Page{
		{Image: "images/p1.png", Text: "第一页。"},
		{Image: "images/p2.png", Text: "第二页。"},
	}, "zh")

	synth := &fakeSynthesizer{buffers: []*audio.IntBuffer{
		makeTestBuffer(24000, 1, 3.0),
		makeTestBuffer(24000, 1, 1.5),
	}}
	encoder := &fakeEncoder{}

	err := NewStoryPipeline(config, synth, encoder).Run(context.Background())
	require.NoError(t, err)

	// 每页一次合成，语言来自故事默认值
	require.Len(t, synth.requests, 2)
	assert.Equal(t, "第一页。", synth.requests[0].Text)
	assert.Equal(t, "zh", synth.requests[0].Language)
	assert.Equal(t, filepath.Join(config.Output.AssetsDir, "page_01.wav"), synth.requests[0].OutputFile)

	// 每页一个片段，时长为补静音后的精确时长
	require.Len(t, encoder.renders, 2)
	assert.InDelta(t, 10.0, encoder.renders[0].duration, 1e-9)
	assert.InDelta(t, 8.5, encoder.renders[1].duration, 1e-9)
	assert.Equal(t, filepath.Join(config.Output.AssetsDir, "segment_01.mp4"), encoder.renders[0].outputPath)
	assert.Equal(t, filepath.Join(config.Output.AssetsDir, "segment_02.mp4"), encoder.renders[1].outputPath)

	// 片段按页顺序拼接成最终视频
	require.Len(t, encoder.concats, 1)
	assert.Equal(t, []string{
		encoder.renders[0].outputPath,
		encoder.renders[1].outputPath,
	}, encoder.concats[0].segments)
	assert.Equal(t, config.Output.VideoFile, encoder.concats[0].outputPath)
	assert.Equal(t, filepath.Join(config.Output.AssetsDir, "segments.txt"), encoder.concats[0].listFile)

	// 整篇旁白音轨时长为所有补静音页面之和
	combined, err := ReadWAV(config.Output.AudioFile)
	require.NoError(t, err)
	assert.InDelta(t, 18.5, AudioDuration(combined), 1e-9)

	// 每页旁白文件已被补静音版本覆盖
	page1, err := ReadWAV(filepath.Join(config.Output.AssetsDir, "page_01.wav"))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, AudioDuration(page1), 1e-9)
}

func TestStoryPipeline_LanguageOverride(t *testing.T) {
	config := setupStory(t, []model.Page{
		{Image: "p1.png", Text: "hello"},
	}, "zh")
	config.Synthesis.Language = "en"

	synth := &fakeSynthesizer{buffers: []*audio.IntBuffer{makeTestBuffer(24000, 1, 1.0)}}

	err := NewStoryPipeline(config, synth, &fakeEncoder{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, synth.requests, 1)
	assert.Equal(t, "en", synth.requests[0].Language)
}

func TestStoryPipeline_SampleRateMismatch(t *testing.T) {
	config := setupStory(t, []model.Page{
		{Image: "p1.png", Text: "一"},
		{Image: "p2.png", Text: "二"},
	}, "zh")

	synth := &fakeSynthesizer{buffers: []*audio.IntBuffer{
		makeTestBuffer(24000, 1, 1.0),
		makeTestBuffer(22050, 1, 1.0),
	}}
	encoder := &fakeEncoder{}

	err := NewStoryPipeline(config, synth, encoder).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "采样率")
	assert.Contains(t, err.Error(), "第 2 页")

	// 第二页在渲染前中止，最终拼接不会发生
	assert.Len(t, encoder.renders, 1)
	assert.Empty(t, encoder.concats)
	assert.NoFileExists(t, config.Output.VideoFile)
}

func TestStoryPipeline_MissingImage(t *testing.T) {
	config := setupStory(t, []model.Page{
		{Image: "p1.png", Text: "一"},
		{Image: "p2.png", Text: "二"},
	}, "zh")
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(config.StoryFile), "p2.png")))

	synth := &fakeSynthesizer{buffers: []*audio.IntBuffer{
		makeTestBuffer(24000, 1, 1.0),
		makeTestBuffer(24000, 1, 1.0),
	}}
	encoder := &fakeEncoder{}

	err := NewStoryPipeline(config, synth, encoder).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "第 2 页图片不存在")

	// 第一页已处理，第二页的合成不会发起
	assert.Len(t, synth.requests, 1)
	assert.Len(t, encoder.renders, 1)
	assert.Empty(t, encoder.concats)
}

func TestStoryPipeline_SynthesisError(t *testing.T) {
	config := setupStory(t, []model.Page{
		{Image: "p1.png", Text: "一"},
		{Image: "p2.png", Text: "二"},
	}, "zh")

	synth := &fakeSynthesizer{
		buffers: []*audio.IntBuffer{makeTestBuffer(24000, 1, 1.0), nil},
		failAt:  2,
	}
	encoder := &fakeEncoder{}

	err := NewStoryPipeline(config, synth, encoder).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "第 2 页旁白合成失败")
	assert.Len(t, encoder.renders, 1)
	assert.Empty(t, encoder.concats)
}

func TestStoryPipeline_RefusesExistingOutput(t *testing.T) {
	config := setupStory(t, []model.Page{
		{Image: "p1.png", Text: "一"},
	}, "zh")

	require.NoError(t, os.MkdirAll(filepath.Dir(config.Output.VideoFile), 0755))
	require.NoError(t, os.WriteFile(config.Output.VideoFile, []byte("old"), 0644))

	synth := &fakeSynthesizer{buffers: []*audio.IntBuffer{makeTestBuffer(24000, 1, 1.0)}}

	err := NewStoryPipeline(config, synth, &fakeEncoder{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "输出文件已存在")

	// 覆盖检查发生在任何合成之前
	assert.Empty(t, synth.requests)

	// 已有文件原样保留
	data, err := os.ReadFile(config.Output.VideoFile)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	// 开启覆盖后同一配置可以运行
	config.Output.Overwrite = true
	err = NewStoryPipeline(config, synth, &fakeEncoder{}).Run(context.Background())
	require.NoError(t, err)
}

func TestStoryPipeline_InvalidStoryFile(t *testing.T) {
	dir := t.TempDir()
	storyPath := filepath.Join(dir, "story.json")
	require.NoError(t, os.WriteFile(storyPath, []byte(`{"pages": []}`), 0644))

	config := &model.Config{
		StoryFile: storyPath,
		Output: model.OutputConfig{
			VideoFile: filepath.Join(dir, "story.mp4"),
			AudioFile: filepath.Join(dir, "story_narration.wav"),
			AssetsDir: filepath.Join(dir, "story_assets"),
		},
	}

	synth := &fakeSynthesizer{}
	err := NewStoryPipeline(config, synth, &fakeEncoder{}).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, synth.requests)
}
