package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服務配置
//
// 配置來源的優先級（低到高）：
//  1. 程式內建預設值
//  2. YAML 配置檔（可省略）
//  3. 環境變數（容器部署時只需要改 PORT）
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
	} `yaml:"server"`

	Room struct {
		MaxRooms       int `yaml:"max_rooms"`
		PrecreateRooms int `yaml:"precreate_rooms"`
	} `yaml:"room"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig 內建預設值
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 3000
	config.Server.ReadTimeout = 15 * time.Second
	config.Server.WriteTimeout = 15 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Room.MaxRooms = MaxRooms
	config.Room.PrecreateRooms = DefaultPrecreateRooms
	config.Log.Level = "info"
	config.Log.Format = "text"
	return config
}

// LoadConfig 讀取配置檔並套用環境變數覆寫
//
// 配置檔不存在時直接使用預設值：部署最小化，一個二進位檔即可啟動。
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("解析配置檔失敗: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
		}
	}

	// 環境變數覆寫
	if port := os.Getenv("PORT"); port != "" {
		if val, err := strconv.Atoi(port); err == nil && val > 0 {
			config.Server.Port = val
		}
	}

	return config, nil
}

// Addr 監聽位址
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
