package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/difyz9/story2video/model"
	"golang.org/x/time/rate"
)

// TTSProvider narrate命令的语音合成提供商接口
type TTSProvider interface {
	// GenerateAudio 合成一段音频，返回音频文件路径
	GenerateAudio(ctx context.Context, text string, index int) (string, error)

	// GetProviderName 获取提供商名称
	GetProviderName() string

	// ValidateConfig 验证配置是否正确
	ValidateConfig() error

	// GetMaxTextLength 获取单次请求最大文本长度
	GetMaxTextLength() int

	// GetRecommendedRateLimit 获取推荐的速率限制（每秒请求数）
	GetRecommendedRateLimit() int
}

// NarrateTask 单条文本的合成任务
type NarrateTask struct {
	Index int
	Text  string
}

// NarrateResult 合成任务结果
type NarrateResult struct {
	Index     int
	AudioFile string
	Error     error
}

// NarrateService 文本转语音服务：把文本/Markdown文件逐条合成音频
// 并合并为一个文件
type NarrateService struct {
	provider      TTSProvider
	config        *model.Config
	limiter       *rate.Limiter
	textProcessor *TextProcessor
}

// NewNarrateService 创建文本转语音服务
func NewNarrateService(provider TTSProvider, config *model.Config) *NarrateService {
	// 未配置速率限制时使用提供商推荐值
	rateLimit := config.Concurrent.RateLimit
	if rateLimit <= 0 {
		rateLimit = provider.GetRecommendedRateLimit()
	}

	limiter := rate.NewLimiter(rate.Every(time.Second/time.Duration(rateLimit)), rateLimit)

	return &NarrateService{
		provider:      provider,
		config:        config,
		limiter:       limiter,
		textProcessor: NewTextProcessor(),
	}
}

// CreateNarrateService 根据提供商类型创建文本转语音服务
func CreateNarrateService(providerType string, config *model.Config) (*NarrateService, error) {
	var provider TTSProvider
	var err error

	switch providerType {
	case "", "edge", "edgetts":
		provider = NewEdgeTTSProvider(config)
	case "tencent", "tencentcloud":
		provider, err = NewTencentTTSProvider(
			config.TencentCloud.SecretID,
			config.TencentCloud.SecretKey,
			config.TencentCloud.Region,
			config,
		)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("不支持的TTS提供商: %s（可选: edge, tencent）", providerType)
	}

	return NewNarrateService(provider, config), nil
}

// ProcessMarkdownFile 处理Markdown文件
func (ns *NarrateService) ProcessMarkdownFile(inputFile string) error {
	return ns.processFile(inputFile, true)
}

// ProcessInputFile 处理普通文本文件
func (ns *NarrateService) ProcessInputFile(inputFile string) error {
	return ns.processFile(inputFile, false)
}

// processFile 通用文件处理：提取有效文本，逐条合成，按顺序合并
func (ns *NarrateService) processFile(inputFile string, isMarkdown bool) error {
	// 确保目录存在
	if err := os.MkdirAll(ns.config.Audio.TempDir, 0755); err != nil {
		return fmt.Errorf("创建临时目录失败: %v", err)
	}
	if err := os.MkdirAll(ns.config.Audio.OutputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %v", err)
	}

	content, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("读取输入文件失败: %v", err)
	}

	var sentences []string
	if isMarkdown {
		sentences = ns.textProcessor.ExtractMarkdownText(string(content))
	} else {
		sentences = ns.filterValidLines(strings.Split(string(content), "\n"))
	}

	if len(sentences) == 0 {
		return fmt.Errorf("没有提取到有效的文本内容")
	}

	fmt.Printf("📊 文本处理统计 [%s]: 提取到 %d 个有效句子\n", ns.provider.GetProviderName(), len(sentences))

	var tasks []NarrateTask
	for i, sentence := range sentences {
		tasks = append(tasks, NarrateTask{Index: i, Text: sentence})
	}

	results := ns.processTasksConcurrent(tasks)

	// 任何一条失败都中止合并，避免产出缺句的音频
	var audioFiles []string
	for _, result := range results {
		if result.Error != nil {
			return fmt.Errorf("任务 %d 合成失败: %v", result.Index, result.Error)
		}
		audioFiles = append(audioFiles, result.AudioFile)
	}

	return ns.mergeAudioFiles(audioFiles)
}

// filterValidLines 过滤有效的文本行
func (ns *NarrateService) filterValidLines(lines []string) []string {
	var validLines []string
	skipped := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !ns.textProcessor.IsValidTextForTTS(trimmed) {
			skipped++
			continue
		}
		validLines = append(validLines, ns.textProcessor.ProcessText(trimmed))
	}

	fmt.Printf("📊 文本过滤统计: 总行数=%d, 跳过=%d, 有效行数=%d\n",
		len(lines), skipped, len(validLines))

	return validLines
}

// processTasksConcurrent 并发处理合成任务，结果按原始顺序返回
func (ns *NarrateService) processTasksConcurrent(tasks []NarrateTask) []NarrateResult {
	taskChan := make(chan NarrateTask, len(tasks))
	resultChan := make(chan NarrateResult, len(tasks))

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	workerCount := ns.config.Concurrent.MaxWorkers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(tasks) {
		workerCount = len(tasks)
	}

	fmt.Printf("启动 %d 个worker开始处理 [%s]...\n", workerCount, ns.provider.GetProviderName())

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go ns.narrateWorker(i, taskChan, resultChan, &wg)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []NarrateResult
	successCount := 0
	failureCount := 0

	for result := range resultChan {
		results = append(results, result)
		if result.Error != nil {
			failureCount++
			fmt.Printf("✗ 任务 %d 失败: %v\n", result.Index, result.Error)
		} else {
			successCount++
			fmt.Printf("✓ 任务 %d 完成: %s\n", result.Index, result.AudioFile)
		}
	}

	fmt.Printf("\n处理完成 [%s]: 成功 %d, 失败 %d\n\n", ns.provider.GetProviderName(), successCount, failureCount)

	// 按索引排序，确保音频按原始文本顺序合并
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	return results
}

// narrateWorker 合成工作协程
func (ns *NarrateService) narrateWorker(workerID int, taskChan <-chan NarrateTask, resultChan chan<- NarrateResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range taskChan {
		fmt.Printf("Worker %d 处理任务 %d [%s]: %s\n", workerID, task.Index, ns.provider.GetProviderName(), task.Text)

		audioFile, err := ns.generateAudioWithRetry(task.Text, task.Index, 3)
		resultChan <- NarrateResult{
			Index:     task.Index,
			AudioFile: audioFile,
			Error:     err,
		}
	}
}

// generateAudioWithRetry 带重试机制的音频合成
func (ns *NarrateService) generateAudioWithRetry(text string, index int, maxRetries int) (string, error) {
	var lastErr error
	ctx := context.Background()

	for attempt := 1; attempt <= maxRetries; attempt++ {
		// 等待速率限制
		if err := ns.limiter.Wait(ctx); err != nil {
			return "", err
		}

		audioPath, err := ns.provider.GenerateAudio(ctx, text, index)
		if err == nil {
			if attempt > 1 {
				fmt.Printf("  ✓ 任务 %d 重试第 %d 次成功\n", index, attempt-1)
			}
			return audioPath, nil
		}

		lastErr = err
		fmt.Printf("  ✗ 任务 %d 第 %d 次尝试失败: %v\n", index, attempt, err)

		if attempt < maxRetries {
			waitTime := time.Duration(attempt) * time.Second
			fmt.Printf("  ⏳ 任务 %d 等待 %v 后重试...\n", index, waitTime)
			time.Sleep(waitTime)
		}
	}

	return "", fmt.Errorf("任务 %d 经过 %d 次重试后仍然失败，最后错误: %v", index, maxRetries, lastErr)
}

// mergeAudioFiles 按顺序合并音频文件（相同编码格式的二进制拼接）
func (ns *NarrateService) mergeAudioFiles(audioFiles []string) error {
	if len(audioFiles) == 0 {
		return fmt.Errorf("没有音频文件需要合并")
	}

	fmt.Printf("开始合并 %d 个音频文件 [%s]...\n", len(audioFiles), ns.provider.GetProviderName())

	outputPath := filepath.Join(ns.config.Audio.OutputDir, ns.config.Audio.FinalOutput)

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %v", err)
	}
	defer outputFile.Close()

	for i, audioFile := range audioFiles {
		fmt.Printf("合并文件 %d/%d: %s\n", i+1, len(audioFiles), filepath.Base(audioFile))

		inputFile, err := os.Open(audioFile)
		if err != nil {
			return fmt.Errorf("打开音频文件失败 %s: %v", audioFile, err)
		}

		_, err = io.Copy(outputFile, inputFile)
		inputFile.Close()

		if err != nil {
			return fmt.Errorf("复制音频文件失败 %s: %v", audioFile, err)
		}
	}

	fmt.Printf("音频合并完成 [%s]: %s\n", ns.provider.GetProviderName(), outputPath)
	return nil
}

// validateMP3File 验证MP3文件的有效性：存在、大小合理、文件头匹配。
// MP3文件以ID3标签或帧同步字 (0xFF 0xFx) 开头。
func validateMP3File(audioPath string) error {
	fileInfo, err := os.Stat(audioPath)
	if err != nil {
		return fmt.Errorf("音频文件不存在: %v", err)
	}

	const minFileSize = 1024 // 最小1KB
	if fileInfo.Size() < minFileSize {
		return fmt.Errorf("音频文件过小 (%d bytes)，可能为空或损坏", fileInfo.Size())
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("无法打开音频文件: %v", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	buffer := make([]byte, 10)
	n, err := reader.Read(buffer)
	if err != nil || n < 3 {
		return fmt.Errorf("无法读取音频文件头部")
	}

	if string(buffer[:3]) == "ID3" || (buffer[0] == 0xFF && (buffer[1]&0xF0) == 0xF0) {
		return nil
	}

	return fmt.Errorf("音频文件格式无效，可能不是有效的MP3文件")
}
