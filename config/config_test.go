package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTrainConfig(t *testing.T) {
	path := writeConfig(t, `
data_dir: /data
reference_time: "2019-03-01 00:00:00"
client_limit: 500
implicit:
  num_factors: 32
workers: 4
`)
	cfg, err := LoadTrainConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientLimit != 500 || cfg.Workers != 4 {
		t.Errorf("显式配置未生效: %+v", cfg)
	}
	if cfg.Implicit.NumFactors != 32 {
		t.Errorf("num_factors = %d", cfg.Implicit.NumFactors)
	}
	// 未覆盖的字段保持默认
	if cfg.Implicit.Epochs != 15 {
		t.Errorf("epochs 默认值 = %d, 期望 15", cfg.Implicit.Epochs)
	}
	if cfg.PopularK != 100 {
		t.Errorf("popular_k 默认值 = %d", cfg.PopularK)
	}
	if got := cfg.Path(cfg.FeaturesFile); got != "/data/features.csv" {
		t.Errorf("Path = %q", got)
	}
	ref, err := cfg.Reference()
	if err != nil {
		t.Fatal(err)
	}
	if ref.Year() != 2019 || ref.Month() != 3 {
		t.Errorf("reference = %v", ref)
	}
}

func TestLoadTrainConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"缺少 data_dir", `reference_time: "2019-03-01 00:00:00"`},
		{"缺少 reference_time", `data_dir: /data`},
		{"时间格式非法", "data_dir: /data\nreference_time: someday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTrainConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("校验应失败")
			}
		})
	}
}

func TestLoadServeConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /data
reference_time: "2019-03-01 00:00:00"
`)
	cfg, err := LoadServeConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8000" || cfg.Limit != 30 || cfg.NumCandidates != 100 {
		t.Errorf("默认值错误: %+v", cfg)
	}
	if cfg.Redis != nil {
		t.Error("未配置 redis 时应为 nil")
	}
}

func TestLoadServeConfigMissingFile(t *testing.T) {
	if _, err := LoadServeConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("文件不存在应报错")
	}
}
