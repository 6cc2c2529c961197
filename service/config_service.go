package service

import (
	"fmt"
	"os"

	"github.com/difyz9/story2video/model"
	"gopkg.in/yaml.v3"
)

// ConfigService 配置服务
type ConfigService struct {
	config *model.Config
}

// NewConfigService 创建配置服务
func NewConfigService(configPath string) (*ConfigService, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return &ConfigService{config: config}, nil
}

// GetConfig 获取配置
func (cs *ConfigService) GetConfig() *model.Config {
	return cs.config
}

// loadConfig 加载配置文件
func loadConfig(configPath string) (*model.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %v", err)
	}

	var config model.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %v", err)
	}

	return &config, nil
}

// LoadOrDefaultConfig 加载配置文件；未指定路径且默认位置也不存在时
// 使用内置默认配置，命令行标志随后覆盖
func LoadOrDefaultConfig(configPath string) (*model.Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
	}
	return loadConfig(configPath)
}

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
