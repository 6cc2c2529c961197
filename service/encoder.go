package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// SegmentEncoder 视频编码能力边界：渲染单页片段、无损拼接片段。
// 测试用记录调用的假实现替换真实的ffmpeg。
type SegmentEncoder interface {
	// RenderSegment 把一张图片和已补静音的旁白渲染为固定时长的视频片段
	RenderSegment(ctx context.Context, imagePath, audioPath string, duration float64, outputPath string) error

	// ConcatSegments 按顺序无损拼接视频片段，listFile为拼接清单的写入路径
	ConcatSegments(ctx context.Context, segments []string, listFile, outputPath string) error
}

// FFmpegEncoder 通过调用ffmpeg子进程实现编码，
// 每次调用同步等待进程结束，非零退出视为致命错误
type FFmpegEncoder struct {
	BinaryPath string
}

// NewFFmpegEncoder 创建ffmpeg编码器
func NewFFmpegEncoder() *FFmpegEncoder {
	return &FFmpegEncoder{BinaryPath: "ffmpeg"}
}

// RenderSegment 把单张图片循环成视频流，混入旁白音轨，按时长截断。
// 宽高取整为偶数，libx264等常见编码器要求偶数尺寸。
func (fe *FFmpegEncoder) RenderSegment(ctx context.Context, imagePath, audioPath string, duration float64, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建片段输出目录失败: %v", err)
	}
	return fe.run(ctx, renderArgs(imagePath, audioPath, duration, outputPath))
}

// ConcatSegments 写入拼接清单后用concat分离器做流复制，不重新编码，
// 保持每个片段内部的音画同步
func (fe *FFmpegEncoder) ConcatSegments(ctx context.Context, segments []string, listFile, outputPath string) error {
	if len(segments) == 0 {
		return fmt.Errorf("没有视频片段需要拼接")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建视频输出目录失败: %v", err)
	}
	if err := WriteConcatList(segments, listFile); err != nil {
		return err
	}
	return fe.run(ctx, concatArgs(listFile, outputPath))
}

// run 同步执行ffmpeg，出错时把stderr带进错误信息
func (fe *FFmpegEncoder) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, fe.BinaryPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg执行失败 (%s %s): %v\n%s",
			fe.BinaryPath, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// renderArgs 单页片段的ffmpeg参数
func renderArgs(imagePath, audioPath string, duration float64, outputPath string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-t", fmt.Sprintf("%.3f", duration),
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	}
}

// concatArgs 无损拼接的ffmpeg参数
func concatArgs(listFile, outputPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outputPath,
	}
}

// WriteConcatList 生成concat分离器所需的清单文件，
// 每行一个片段路径，按页顺序排列
func WriteConcatList(segments []string, listFile string) error {
	if err := os.MkdirAll(filepath.Dir(listFile), 0755); err != nil {
		return fmt.Errorf("创建清单目录失败: %v", err)
	}

	var sb strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&sb, "file '%s'\n", filepath.ToSlash(segment))
	}

	if err := os.WriteFile(listFile, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("写入拼接清单失败: %v", err)
	}
	return nil
}
