package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/difyz9/story2video/model"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"
)

// TencentTTSProvider 腾讯云TTS提供商（长文本异步任务接口）
type TencentTTSProvider struct {
	client *tts.Client
	config *model.Config
}

// NewTencentTTSProvider 创建腾讯云TTS提供商
func NewTencentTTSProvider(secretID, secretKey, region string, config *model.Config) (*TencentTTSProvider, error) {
	credential := common.NewCredential(secretID, secretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tts.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云TTS客户端失败: %v", err)
	}

	provider := &TencentTTSProvider{
		client: client,
		config: config,
	}

	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}

	return provider, nil
}

// GenerateAudio 合成一段音频：创建异步任务，轮询状态，下载结果
func (ttp *TencentTTSProvider) GenerateAudio(ctx context.Context, text string, index int) (string, error) {
	req := &model.TTSRequest{
		Text:            text,
		VoiceType:       ttp.config.TTS.VoiceType,
		Volume:          ttp.config.TTS.Volume,
		Speed:           ttp.config.TTS.Speed,
		PrimaryLanguage: ttp.config.TTS.PrimaryLanguage,
		SampleRate:      ttp.config.TTS.SampleRate,
		Codec:           ttp.config.TTS.Codec,
	}

	response, err := ttp.createTTSTask(req)
	if err != nil {
		return "", fmt.Errorf("创建TTS任务失败: %v", err)
	}
	if !response.Success {
		return "", fmt.Errorf("TTS任务创建失败: %s", response.Error)
	}

	audioPath, err := ttp.waitForTaskAndDownload(ctx, response.TaskID, index)
	if err != nil {
		return "", fmt.Errorf("下载音频失败: %v", err)
	}

	return audioPath, nil
}

// GetProviderName 获取提供商名称
func (ttp *TencentTTSProvider) GetProviderName() string {
	return "TencentCloud"
}

// ValidateConfig 验证配置是否正确
func (ttp *TencentTTSProvider) ValidateConfig() error {
	if ttp.config.TencentCloud.SecretID == "" || ttp.config.TencentCloud.SecretID == "your_secret_id" {
		return fmt.Errorf("腾讯云SecretID未配置")
	}
	if ttp.config.TencentCloud.SecretKey == "" || ttp.config.TencentCloud.SecretKey == "your_secret_key" {
		return fmt.Errorf("腾讯云SecretKey未配置")
	}
	if ttp.config.TencentCloud.Region == "" {
		return fmt.Errorf("腾讯云Region未配置")
	}
	return nil
}

// GetMaxTextLength 获取单次请求最大文本长度
func (ttp *TencentTTSProvider) GetMaxTextLength() int {
	return 150 // 腾讯云TTS单次最大150个字符
}

// GetRecommendedRateLimit 获取推荐的速率限制（每秒请求数）
func (ttp *TencentTTSProvider) GetRecommendedRateLimit() int {
	return 5 // 腾讯云TTS建议每秒不超过5个请求
}

// createTTSTask 创建TTS异步任务
func (ttp *TencentTTSProvider) createTTSTask(req *model.TTSRequest) (*model.TTSResponse, error) {
	// 设置默认值
	if req.VoiceType == 0 {
		req.VoiceType = 101008 // 智琪 - 女声
	}
	if req.Volume == 0 {
		req.Volume = 5
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}
	if req.PrimaryLanguage == 0 {
		req.PrimaryLanguage = 1
	}
	if req.SampleRate == 0 {
		req.SampleRate = 16000
	}
	if req.Codec == "" {
		req.Codec = "mp3"
	}

	request := tts.NewCreateTtsTaskRequest()
	request.Text = common.StringPtr(req.Text)
	request.Volume = common.Float64Ptr(float64(req.Volume))
	request.Speed = common.Float64Ptr(req.Speed)
	request.VoiceType = common.Int64Ptr(req.VoiceType)
	request.PrimaryLanguage = common.Int64Ptr(req.PrimaryLanguage)
	request.SampleRate = common.Uint64Ptr(uint64(req.SampleRate))
	request.Codec = common.StringPtr(req.Codec)

	response, err := ttp.client.CreateTtsTask(request)
	if err != nil {
		return &model.TTSResponse{
			Success: false,
			Error:   fmt.Sprintf("调用腾讯云TTS失败: %v", err),
		}, nil
	}

	return &model.TTSResponse{
		Success: true,
		TaskID:  *response.Response.Data.TaskId,
		Message: "TTS任务创建成功",
	}, nil
}

// describeTTSTaskStatus 查询TTS任务状态
func (ttp *TencentTTSProvider) describeTTSTaskStatus(taskID string) (*model.TTSStatusResponse, error) {
	request := tts.NewDescribeTtsTaskStatusRequest()
	request.TaskId = common.StringPtr(taskID)

	response, err := ttp.client.DescribeTtsTaskStatus(request)
	if err != nil {
		return &model.TTSStatusResponse{
			Success: false,
			Error:   fmt.Sprintf("查询TTS任务状态失败: %v", err),
		}, nil
	}

	result := &model.TTSStatusResponse{
		Success:   true,
		Status:    *response.Response.Data.Status,
		StatusStr: *response.Response.Data.StatusStr,
	}
	if response.Response.Data.ResultUrl != nil {
		result.AudioURL = *response.Response.Data.ResultUrl
	}
	if response.Response.Data.ErrorMsg != nil {
		result.ErrorMsg = *response.Response.Data.ErrorMsg
	}

	return result, nil
}

// waitForTaskAndDownload 等待任务完成并下载音频
func (ttp *TencentTTSProvider) waitForTaskAndDownload(ctx context.Context, taskID string, index int) (string, error) {
	maxWaitTime := 60 * time.Second
	checkInterval := 2 * time.Second
	startTime := time.Now()

	for time.Since(startTime) < maxWaitTime {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		status, err := ttp.describeTTSTaskStatus(taskID)
		if err != nil {
			return "", fmt.Errorf("查询任务状态失败: %v", err)
		}
		if !status.Success {
			return "", fmt.Errorf("查询任务状态失败: %s", status.Error)
		}

		switch status.Status {
		case 2: // 任务完成
			if status.AudioURL == "" {
				return "", fmt.Errorf("任务完成但没有获取到音频URL")
			}
			return ttp.downloadAudio(status.AudioURL, index)

		case 3: // 任务失败
			return "", fmt.Errorf("TTS任务失败: %s", status.ErrorMsg)

		case 0, 1: // 任务排队中或处理中
			fmt.Printf("  ⏳ 任务 %d 状态: %s, 等待中...\n", index, status.StatusStr)
			time.Sleep(checkInterval)

		default:
			return "", fmt.Errorf("未知任务状态: %d", status.Status)
		}
	}

	return "", fmt.Errorf("任务超时，等待时间超过 %v", maxWaitTime)
}

// downloadAudio 下载音频文件
func (ttp *TencentTTSProvider) downloadAudio(audioURL string, index int) (string, error) {
	filename := fmt.Sprintf("audio_%03d.mp3", index)
	audioPath := filepath.Join(ttp.config.Audio.TempDir, filename)

	resp, err := http.Get(audioURL)
	if err != nil {
		return "", fmt.Errorf("下载音频失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("下载音频失败，HTTP状态码: %d", resp.StatusCode)
	}

	file, err := os.Create(audioPath)
	if err != nil {
		return "", fmt.Errorf("创建音频文件失败: %v", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("保存音频文件失败: %v", err)
	}

	if err := validateMP3File(audioPath); err != nil {
		os.Remove(audioPath)
		return "", fmt.Errorf("音频文件验证失败: %v", err)
	}

	return audioPath, nil
}
