package model

// 腾讯云TTS合成请求
type TTSRequest struct {
	Text            string  `json:"text" binding:"required"`
	VoiceType       int64   `json:"voiceType,omitempty"`
	Volume          int64   `json:"volume,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	PrimaryLanguage int64   `json:"primaryLanguage,omitempty"`
	SampleRate      int64   `json:"sampleRate,omitempty"`
	Codec           string  `json:"codec,omitempty"`
}

// 腾讯云TTS任务响应
type TTSResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// 腾讯云TTS任务状态查询响应
type TTSStatusResponse struct {
	Success   bool   `json:"success"`
	Status    int64  `json:"status,omitempty"`
	StatusStr string `json:"statusStr,omitempty"`
	AudioURL  string `json:"audioUrl,omitempty"`
	ErrorMsg  string `json:"errorMsg,omitempty"`
	Error     string `json:"error,omitempty"`
}
