package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config 选配工具的运行配置
// 来源优先级: 命令行参数 > 环境变量 > YAML 文件 > 默认值
type Config struct {
	Series   int    `yaml:"series"`   // 串联模组数
	Parallel int    `yaml:"parallel"` // 每组并联电芯数
	Format   string `yaml:"format"`   // 输入格式 (csv / json)
	DBPath   string `yaml:"db_path"`  // 运行留痕数据库路径，空 = 不留痕
	LogLevel string `yaml:"log_level"`
}

// Load 读取配置文件（不存在时静默使用默认值），并应用环境变量覆盖
func Load(path string) (Config, error) {
	cfg := Config{
		Format:   "csv",
		LogLevel: "info",
	}

	if path == "" {
		path = "cellmatch.yaml"
		if envPath := os.Getenv("CELLMATCH_CONFIG"); envPath != "" {
			path = envPath
		}
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	// Env vars override YAML values
	envOverrideInt(&cfg.Series, "CELLMATCH_SERIES")
	envOverrideInt(&cfg.Parallel, "CELLMATCH_PARALLEL")
	envOverride(&cfg.Format, "CELLMATCH_FORMAT")
	envOverride(&cfg.DBPath, "CELLMATCH_DB_PATH")
	envOverride(&cfg.LogLevel, "CELLMATCH_LOG_LEVEL")

	return cfg, nil
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
