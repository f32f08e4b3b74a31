package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Persona PersonaConfig `mapstructure:"persona"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // local, production
}

// GeminiConfig Gemini API 配置
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// PersonaConfig 角色配置
type PersonaConfig struct {
	DefaultName string `mapstructure:"default_name"` // 用户默认称呼
}

// PacingConfig 回复节奏配置。
// 控制 burst 输出的拟人延迟: 先读后想, 再逐条"打字"。
// 数值是展示层校准, 算法形状 (初始延迟 → 逐条延迟后追加) 不可变。
type PacingConfig struct {
	InitialDelay   time.Duration `mapstructure:"initial_delay"`   // 读消息+思考的基础延迟
	InitialJitter  time.Duration `mapstructure:"initial_jitter"`  // 叠加的随机抖动上限
	BaseThinking   time.Duration `mapstructure:"base_thinking"`   // 每条气泡之间的基础间隔
	PerCharTyping  time.Duration `mapstructure:"per_char_typing"` // 每个字符的模拟打字耗时
	EffectDelay    time.Duration `mapstructure:"effect_delay"`    // burst 结束到特效触发的间隔
	EffectDuration time.Duration `mapstructure:"effect_duration"` // 特效持续时长
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// ─── 分层配置加载 ───
	// 优先级 (低 → 高): 默认值 → 全局 ~/.aetheria/ → 项目本地 → 环境变量
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Layer 1: 全局配置 ~/.aetheria/config.yaml
	globalDir := filepath.Join(os.Getenv("HOME"), ".aetheria")
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	}

	// Layer 2: 项目本地配置, 用 MergeInConfig 叠加
	for _, localDir := range []string{"./config", "."} {
		localPath := filepath.Join(localDir, "config.yaml")
		if _, err := os.Stat(localPath); err == nil {
			v2 := viper.New()
			v2.SetConfigFile(localPath)
			if err := v2.ReadInConfig(); err == nil {
				_ = v.MergeConfigMap(v2.AllSettings())
			}
			break // 只取第一个找到的本地配置
		}
	}

	// 环境变量覆盖
	v.SetEnvPrefix("AETHERIA")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Gemini 官方惯例的环境变量名兜底
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return &cfg, nil
}

// setDefaults 设置默认配置
func setDefaults(v *viper.Viper) {
	// Server 默认值
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 18520)
	v.SetDefault("server.mode", "local")

	// Gemini 默认值
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	// Persona 默认值
	v.SetDefault("persona.default_name", "Engene")

	// Pacing 默认值 (对齐手机打字的体感速度)
	v.SetDefault("pacing.initial_delay", 2*time.Second)
	v.SetDefault("pacing.initial_jitter", 1*time.Second)
	v.SetDefault("pacing.base_thinking", 1*time.Second)
	v.SetDefault("pacing.per_char_typing", 150*time.Millisecond)
	v.SetDefault("pacing.effect_delay", 2*time.Second)
	v.SetDefault("pacing.effect_duration", 8*time.Second)

	// Log 默认值
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
