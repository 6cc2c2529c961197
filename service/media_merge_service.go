package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MediaMergeService 媒体文件合并服务：音频做二进制拼接，
// MP4片段走ffmpeg无损拼接
type MediaMergeService struct {
	encoder SegmentEncoder
}

// NewMediaMergeService 创建媒体合并服务
func NewMediaMergeService(encoder SegmentEncoder) *MediaMergeService {
	return &MediaMergeService{encoder: encoder}
}

// MergeFiles 按给定顺序合并媒体文件。输出扩展名为.mp4时使用
// ffmpeg concat流复制，否则按相同格式音频做二进制拼接
func (mms *MediaMergeService) MergeFiles(files []string, outputPath string) error {
	if len(files) == 0 {
		return fmt.Errorf("没有文件需要合并")
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %v", err)
	}

	if strings.ToLower(filepath.Ext(outputPath)) == ".mp4" {
		return mms.mergeVideoSegments(files, outputPath)
	}
	return mms.mergeAudioBinary(files, outputPath)
}

// mergeVideoSegments 用concat分离器无损拼接视频片段
func (mms *MediaMergeService) mergeVideoSegments(files []string, outputPath string) error {
	for _, file := range files {
		if strings.ToLower(filepath.Ext(file)) != ".mp4" {
			return fmt.Errorf("视频拼接只支持MP4片段，发现: %s", file)
		}
	}

	listFile := filepath.Join(filepath.Dir(outputPath), "merge_list.txt")
	defer os.Remove(listFile)

	return mms.encoder.ConcatSegments(context.Background(), files, listFile, outputPath)
}

// mergeAudioBinary 相同格式音频文件的二进制拼接
func (mms *MediaMergeService) mergeAudioBinary(files []string, outputPath string) error {
	if !mms.checkFormatsCompatible(files) {
		fmt.Println("⚠️  警告: 检测到不同格式的音频文件，合并结果可能不理想")
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %v", err)
	}
	defer outputFile.Close()

	for i, file := range files {
		fmt.Printf("合并文件 %d/%d: %s\n", i+1, len(files), filepath.Base(file))

		inputFile, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("打开文件失败 %s: %v", file, err)
		}

		copied, err := io.Copy(outputFile, inputFile)
		inputFile.Close()
		if err != nil {
			return fmt.Errorf("复制文件失败 %s: %v", file, err)
		}

		fmt.Printf("    已复制: %.2f KB\n", float64(copied)/1024)
	}

	finalInfo, err := outputFile.Stat()
	if err == nil {
		fmt.Printf("\n📊 合并统计:\n")
		fmt.Printf("- 输入文件数: %d\n", len(files))
		fmt.Printf("- 输出文件: %s\n", outputPath)
		fmt.Printf("- 最终大小: %.2f KB\n", float64(finalInfo.Size())/1024)
	}

	return nil
}

// checkFormatsCompatible 检查所有文件扩展名是否一致
func (mms *MediaMergeService) checkFormatsCompatible(files []string) bool {
	if len(files) <= 1 {
		return true
	}
	firstExt := strings.ToLower(filepath.Ext(files[0]))
	for _, file := range files[1:] {
		if strings.ToLower(filepath.Ext(file)) != firstExt {
			return false
		}
	}
	return true
}
