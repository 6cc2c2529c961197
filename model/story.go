package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Story 故事描述文档：有序的页面列表，可携带默认旁白语言
type Story struct {
	Language string `json:"language,omitempty"`
	Pages    []Page `json:"pages"`

	baseDir string
}

// Page 故事单页：一张图片配一段旁白文本
type Page struct {
	Image string `json:"image"` // 图片路径，相对故事文件所在目录
	Text  string `json:"text"`  // 旁白文本
}

// LoadStory 读取并校验故事JSON文件。
// pages列表必须非空，每页必须有图片路径和非空旁白文本，
// 任何校验失败都在合成开始前报错。
func LoadStory(storyFile string) (*Story, error) {
	data, err := os.ReadFile(storyFile)
	if err != nil {
		return nil, fmt.Errorf("读取故事文件失败: %v", err)
	}

	var story Story
	if err := json.Unmarshal(data, &story); err != nil {
		return nil, fmt.Errorf("解析故事文件失败 %s: %v", storyFile, err)
	}

	if len(story.Pages) == 0 {
		return nil, fmt.Errorf("故事文件必须包含非空的 pages 列表: %s", storyFile)
	}

	for i, page := range story.Pages {
		if page.Image == "" {
			return nil, fmt.Errorf("第 %d 页缺少 image 字段", i+1)
		}
		if strings.TrimSpace(page.Text) == "" {
			return nil, fmt.Errorf("第 %d 页的旁白文本为空", i+1)
		}
	}

	abs, err := filepath.Abs(storyFile)
	if err != nil {
		return nil, fmt.Errorf("无法解析故事文件路径: %v", err)
	}
	story.baseDir = filepath.Dir(abs)

	return &story, nil
}

// BaseDir 故事文件所在目录，页面图片相对该目录解析
func (s *Story) BaseDir() string {
	return s.baseDir
}

// ImagePath 解析某页图片的完整路径
func (s *Story) ImagePath(p Page) string {
	return filepath.Join(s.baseDir, p.Image)
}

// ResolveLanguage 解析本次运行的旁白语言：命令行覆盖 > 故事默认 > en。
// 整篇故事只用一种语言，不支持逐页覆盖。
func (s *Story) ResolveLanguage(override string) string {
	if override != "" {
		return override
	}
	if s.Language != "" {
		return s.Language
	}
	return "en"
}
