package model

// Config 总配置结构
type Config struct {
	Synthesis    SynthesisConfig    `yaml:"synthesis"`
	Output       OutputConfig       `yaml:"output"`
	EdgeTTS      EdgeTTSConfig      `yaml:"edge_tts"`
	TencentCloud TencentCloudConfig `yaml:"tencent_cloud"`
	TTS          TTSConfig          `yaml:"tts"`
	Audio        AudioConfig        `yaml:"audio"`
	Concurrent   ConcurrentConfig   `yaml:"concurrent"`
	StoryFile    string             `yaml:"story_file"`
	InputFile    string             `yaml:"input_file"`
}

// SynthesisConfig 故事旁白合成配置
type SynthesisConfig struct {
	Engine        string `yaml:"engine"`         // 引擎：xtts 或 bark
	ServerURL     string `yaml:"server_url"`     // 推理服务地址
	ModelName     string `yaml:"model_name"`     // 模型标识
	Language      string `yaml:"language"`       // 覆盖故事默认语言，留空则用故事里的language
	SpeakerWav    string `yaml:"speaker_wav"`    // 参考音色WAV文件（xtts声音克隆）
	SpeakerID     string `yaml:"speaker_id"`     // 模型内置音色ID（xtts）
	HistoryPrompt string `yaml:"history_prompt"` // 风格提示（bark）
	Device        string `yaml:"device"`         // 推理设备：auto/cpu/cuda
}

// OutputConfig 故事视频输出配置
type OutputConfig struct {
	VideoFile string `yaml:"video_file"` // 最终视频文件
	AudioFile string `yaml:"audio_file"` // 整篇旁白音轨文件
	AssetsDir string `yaml:"assets_dir"` // 每页的中间音频/片段目录
	Overwrite bool   `yaml:"overwrite"`  // 是否覆盖已存在的输出文件
}

// EdgeTTSConfig Edge TTS配置（narrate命令）
type EdgeTTSConfig struct {
	Voice  string `yaml:"voice"`  // 语音名称，如 zh-CN-XiaoyiNeural
	Rate   string `yaml:"rate"`   // 语速，如 +10%, +0%, -10%
	Volume string `yaml:"volume"` // 音量，如 +10%, +0%, -10%
	Pitch  string `yaml:"pitch"`  // 音调，如 +10Hz, +0Hz, -10Hz
}

// TencentCloudConfig 腾讯云配置（narrate命令）
type TencentCloudConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// TTSConfig 腾讯云TTS音频参数配置
type TTSConfig struct {
	VoiceType       int64   `yaml:"voice_type"`
	Volume          int64   `yaml:"volume"`
	Speed           float64 `yaml:"speed"`
	PrimaryLanguage int64   `yaml:"primary_language"`
	SampleRate      int64   `yaml:"sample_rate"`
	Codec           string  `yaml:"codec"`
}

// AudioConfig narrate命令的音频合并配置
type AudioConfig struct {
	OutputDir   string `yaml:"output_dir"`
	TempDir     string `yaml:"temp_dir"`
	FinalOutput string `yaml:"final_output"`
}

// ConcurrentConfig narrate命令的并发配置
type ConcurrentConfig struct {
	MaxWorkers int `yaml:"max_workers"`
	RateLimit  int `yaml:"rate_limit"`
}
