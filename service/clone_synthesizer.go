package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/difyz9/story2video/model"
	"github.com/go-audio/audio"
)

// CloneSynthesizer 声音克隆引擎（XTTS），通过HTTP调用本机推理服务。
// 音色来源优先级：参考音色WAV > 指定音色ID > 模型内置默认音色。
type CloneSynthesizer struct {
	config model.SynthesisConfig
	client *http.Client

	// 缓存解析出的默认音色，整次运行只查询一次
	resolvedSpeaker string
}

// NewCloneSynthesizer 创建声音克隆合成器
func NewCloneSynthesizer(cfg model.SynthesisConfig) *CloneSynthesizer {
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://127.0.0.1:5002"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	return &CloneSynthesizer{
		config: cfg,
		// 推理耗时不可控，不设客户端超时
		client: &http.Client{},
	}
}

// EngineName 获取引擎名称
func (cs *CloneSynthesizer) EngineName() string {
	return "XTTS"
}

// ValidateConfig 验证克隆引擎配置：指定了参考音色时文件必须存在
func (cs *CloneSynthesizer) ValidateConfig() error {
	if cs.config.SpeakerWav != "" {
		if _, err := os.Stat(cs.config.SpeakerWav); err != nil {
			return fmt.Errorf("参考音色文件不存在: %s", cs.config.SpeakerWav)
		}
	}
	return nil
}

// Synthesize 合成一段旁白：调用推理服务，把返回的WAV写入输出文件，
// 再解码为PCM采样返回
func (cs *CloneSynthesizer) Synthesize(ctx context.Context, req SynthRequest) (*audio.IntBuffer, error) {
	speakerID := cs.config.SpeakerID
	if cs.config.SpeakerWav == "" && speakerID == "" {
		resolved, err := cs.resolveDefaultSpeaker(ctx)
		if err != nil {
			return nil, err
		}
		speakerID = resolved
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"text":       req.Text,
		"language":   req.Language,
		"model_name": cs.config.ModelName,
		"device":     cs.config.Device,
	}
	if speakerID != "" {
		fields["speaker_id"] = speakerID
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("构造合成请求失败: %v", err)
		}
	}
	if cs.config.SpeakerWav != "" {
		if err := attachSpeakerWav(writer, cs.config.SpeakerWav); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("构造合成请求失败: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cs.config.ServerURL+"/api/tts", body)
	if err != nil {
		return nil, fmt.Errorf("创建合成请求失败: %v", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := cs.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("无法连接XTTS推理服务 %s: %v（请先启动推理服务，或改用 --engine bark）", cs.config.ServerURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("XTTS推理服务返回错误 (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := writeSynthOutput(req.OutputFile, resp.Body); err != nil {
		return nil, err
	}

	return ReadWAV(req.OutputFile)
}

// resolveDefaultSpeaker 既没有参考音色也没指定音色ID时，从模型内置
// 音色中解析默认值：优先名为default的音色，否则取第一个。
// 模型没有任何内置音色时直接报配置错误，绝不静默输出无音色的结果。
func (cs *CloneSynthesizer) resolveDefaultSpeaker(ctx context.Context) (string, error) {
	if cs.resolvedSpeaker != "" {
		return cs.resolvedSpeaker, nil
	}

	speakers, err := cs.listSpeakers(ctx)
	if err != nil {
		return "", err
	}
	if len(speakers) == 0 {
		return "", fmt.Errorf("模型 %s 没有内置音色，请通过 --speaker-wav 提供参考音色或 --speaker-id 指定音色，也可改用 --engine bark", cs.config.ModelName)
	}

	chosen := speakers[0]
	for _, name := range speakers {
		if name == "default" {
			chosen = name
			break
		}
	}

	fmt.Printf("未指定音色，使用模型内置音色: %s\n", chosen)
	cs.resolvedSpeaker = chosen
	return chosen, nil
}

// listSpeakers 查询推理服务当前模型的内置音色列表
func (cs *CloneSynthesizer) listSpeakers(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cs.config.ServerURL+"/api/speakers", nil)
	if err != nil {
		return nil, fmt.Errorf("创建音色列表请求失败: %v", err)
	}

	resp, err := cs.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("无法连接XTTS推理服务 %s: %v（请先启动推理服务，或改用 --engine bark）", cs.config.ServerURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("查询音色列表失败 (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var speakers []string
	if err := json.NewDecoder(resp.Body).Decode(&speakers); err != nil {
		return nil, fmt.Errorf("解析音色列表失败: %v", err)
	}

	return speakers, nil
}
