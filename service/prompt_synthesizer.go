package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/difyz9/story2video/model"
	"github.com/go-audio/audio"
)

// PromptSynthesizer 编解码器式引擎（Bark），不需要参考音色，
// 只接受一个可选的风格提示
type PromptSynthesizer struct {
	config model.SynthesisConfig
	client *http.Client
}

// NewPromptSynthesizer 创建风格提示合成器
func NewPromptSynthesizer(cfg model.SynthesisConfig) *PromptSynthesizer {
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://127.0.0.1:5002"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "suno/bark"
	}
	return &PromptSynthesizer{
		config: cfg,
		// 推理耗时不可控，不设客户端超时
		client: &http.Client{},
	}
}

// EngineName 获取引擎名称
func (ps *PromptSynthesizer) EngineName() string {
	return "Bark"
}

// ValidateConfig 验证配置。Bark引擎所有参数都有默认值，无需校验
func (ps *PromptSynthesizer) ValidateConfig() error {
	return nil
}

// Synthesize 合成一段旁白：调用推理服务，把返回的WAV写入输出文件，
// 再解码为PCM采样返回
func (ps *PromptSynthesizer) Synthesize(ctx context.Context, req SynthRequest) (*audio.IntBuffer, error) {
	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("language", req.Language)
	form.Set("model_name", ps.config.ModelName)
	form.Set("engine", "bark")
	form.Set("device", ps.config.Device)
	if ps.config.HistoryPrompt != "" {
		form.Set("history_prompt", ps.config.HistoryPrompt)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ps.config.ServerURL+"/api/tts", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("创建合成请求失败: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ps.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("无法连接Bark推理服务 %s: %v（请先启动推理服务，或改用 --engine xtts）", ps.config.ServerURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Bark推理服务返回错误 (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := writeSynthOutput(req.OutputFile, resp.Body); err != nil {
		return nil, err
	}

	return ReadWAV(req.OutputFile)
}
