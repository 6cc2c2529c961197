package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/difyz9/story2video/model"
	"github.com/go-audio/audio"
)

// StoryPipeline 故事视频生成管线。
// 严格按页顺序单线程处理：合成旁白 -> 补静音 -> 渲染片段，
// 全部页面完成后拼接整篇旁白音轨和最终视频。任何一页失败立即
// 中止整次运行，不重试不跳页，已生成的中间文件保留在资产目录
// 供排查。
//
// 注意：每页的 page_NN.wav 会先写入原始合成结果，随后被补静音
// 版本覆盖，需要未补静音旁白的调用方必须在管线运行前自行备份。
type StoryPipeline struct {
	config      *model.Config
	synthesizer Synthesizer
	encoder     SegmentEncoder
}

// NewStoryPipeline 创建故事视频生成管线
func NewStoryPipeline(config *model.Config, synthesizer Synthesizer, encoder SegmentEncoder) *StoryPipeline {
	return &StoryPipeline{
		config:      config,
		synthesizer: synthesizer,
		encoder:     encoder,
	}
}

// Run 执行完整的故事视频生成流程
func (sp *StoryPipeline) Run(ctx context.Context) error {
	out := sp.config.Output

	// 输出覆盖检查在任何合成开始前完成
	if err := checkOutputPath(out.VideoFile, out.Overwrite); err != nil {
		return err
	}
	if err := checkOutputPath(out.AudioFile, out.Overwrite); err != nil {
		return err
	}

	story, err := model.LoadStory(sp.config.StoryFile)
	if err != nil {
		return err
	}

	language := story.ResolveLanguage(sp.config.Synthesis.Language)

	if err := os.MkdirAll(out.AssetsDir, 0755); err != nil {
		return fmt.Errorf("创建资产目录失败: %v", err)
	}

	fmt.Printf("开始生成故事视频: %d 页, 语言=%s, 引擎=%s\n",
		len(story.Pages), language, sp.synthesizer.EngineName())

	var narration []*audio.IntBuffer
	var segments []string
	sampleRate := 0

	for i, page := range story.Pages {
		pageNo := i + 1

		imagePath := story.ImagePath(page)
		if _, err := os.Stat(imagePath); err != nil {
			return fmt.Errorf("第 %d 页图片不存在: %s", pageNo, imagePath)
		}

		fmt.Printf("正在处理第 %d/%d 页...\n", pageNo, len(story.Pages))

		audioPath := filepath.Join(out.AssetsDir, fmt.Sprintf("page_%02d.wav", pageNo))
		raw, err := sp.synthesizer.Synthesize(ctx, SynthRequest{
			Text:       page.Text,
			Language:   language,
			OutputFile: audioPath,
		})
		if err != nil {
			return fmt.Errorf("第 %d 页旁白合成失败: %v", pageNo, err)
		}

		// 采样率一致性检查：出现不一致直接中止，不做重采样
		if sampleRate == 0 {
			sampleRate = raw.Format.SampleRate
		} else if raw.Format.SampleRate != sampleRate {
			return fmt.Errorf("第 %d 页采样率 %d 与之前页面的 %d 不一致，所有页面必须使用同一采样率",
				pageNo, raw.Format.SampleRate, sampleRate)
		}

		// 用补静音版本覆盖原始旁白文件，片段渲染和整篇音轨
		// 都以补静音后的音频为准
		padded, duration := PadAudio(raw)
		if err := WriteWAV(audioPath, padded); err != nil {
			return fmt.Errorf("写入第 %d 页旁白失败: %v", pageNo, err)
		}
		narration = append(narration, padded)

		segmentPath := filepath.Join(out.AssetsDir, fmt.Sprintf("segment_%02d.mp4", pageNo))
		if err := sp.encoder.RenderSegment(ctx, imagePath, audioPath, duration, segmentPath); err != nil {
			return fmt.Errorf("第 %d 页片段渲染失败: %v", pageNo, err)
		}
		segments = append(segments, segmentPath)

		fmt.Printf("  ✓ 第 %d 页完成: 时长 %.2f 秒\n", pageNo, duration)
	}

	// 页面列表非空保证了这里一定有采样率
	if sampleRate == 0 {
		return fmt.Errorf("没有生成任何旁白音频")
	}

	// 整篇旁白音轨单独导出，视频拼接只依赖已混流的片段文件
	combined := ConcatAudio(narration)
	if err := WriteWAV(out.AudioFile, combined); err != nil {
		return fmt.Errorf("写入整篇旁白失败: %v", err)
	}

	listFile := filepath.Join(out.AssetsDir, "segments.txt")
	if err := sp.encoder.ConcatSegments(ctx, segments, listFile, out.VideoFile); err != nil {
		return fmt.Errorf("拼接最终视频失败: %v", err)
	}

	fmt.Printf("✅ 整篇旁白已保存: %s\n", out.AudioFile)
	fmt.Printf("✅ 故事视频已保存: %s\n", out.VideoFile)
	return nil
}

// checkOutputPath 输出覆盖策略：目标已存在且未开启覆盖时拒绝执行，
// 不碰已有文件；父目录按需创建
func checkOutputPath(path string, overwrite bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("输出文件已存在: %s（使用 --overwrite 覆盖）", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %v", err)
	}
	return nil
}
