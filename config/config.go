// Package config 提供离线训练任务与在线服务的 YAML 配置，
// 以及根据配置构建 pipeline Node 的默认工厂。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/nextbasket/core"
)

// ImplicitConfig 是矩阵分解的超参数。
type ImplicitConfig struct {
	NumFactors int `yaml:"num_factors"`
	Epochs     int `yaml:"epochs"`
}

// RankerConfig 是外部排序模型服务的接入配置。
// Endpoint 为空表示不接外部服务，serving 退化为候选顺序直出或本地 LR。
type RankerConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LRModelFile    string `yaml:"lr_model_file"` // 本地基线模型（可选）
}

// RedisConfig 是可选的 Redis 接入配置，用于热门榜与向量表的集中存储。
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TrainConfig 是离线训练任务的配置。
type TrainConfig struct {
	DataDir string `yaml:"data_dir"`

	// 语料与产物文件名（相对 DataDir）
	ClientPurchasesFile  string `yaml:"client_purchases_file"`
	ProductsFile         string `yaml:"products_file"`
	ProductsEnrichedFile string `yaml:"products_enriched_file"`
	FeaturesFile         string `yaml:"features_file"`
	GTCountFile          string `yaml:"gt_count_file"`
	VectorsFile          string `yaml:"vectors_file"`
	CoocFile             string `yaml:"cooc_file"`
	StoreStatsFile       string `yaml:"store_stats_file"`
	PopularFile          string `yaml:"popular_file"`

	// 语料行窗口
	ClientOffset int `yaml:"client_offset"`
	ClientLimit  int `yaml:"client_limit"`

	// recency 基准时间，训练/评估统一用它
	ReferenceTime string `yaml:"reference_time"`

	Implicit ImplicitConfig `yaml:"implicit"`
	Workers  int            `yaml:"workers"`
	PopularK int            `yaml:"popular_k"`

	// 可选：配置后训练产物（向量表、热门榜）同时发布到 Redis，
	// serving 端就能从集中存储热加载而不用同步文件。
	Redis *RedisConfig `yaml:"redis"`
}

// ServeConfig 是在线服务的配置。
type ServeConfig struct {
	Addr string `yaml:"addr"`

	DataDir        string `yaml:"data_dir"`
	VectorsFile    string `yaml:"vectors_file"`
	CoocFile       string `yaml:"cooc_file"`
	StoreStatsFile string `yaml:"store_stats_file"`
	ProductsFile   string `yaml:"products_file"`
	PopularFile    string `yaml:"popular_file"`

	ReferenceTime string `yaml:"reference_time"`

	Limit         int      `yaml:"limit"`
	NumCandidates int      `yaml:"num_candidates"`
	Rules         []string `yaml:"rules"` // CEL 过滤规则

	Ranker RankerConfig `yaml:"ranker"`
	Redis  *RedisConfig `yaml:"redis"`

	LogLevel string `yaml:"log_level"`
}

// LoadTrainConfig 加载并校验训练配置。
func LoadTrainConfig(path string) (*TrainConfig, error) {
	cfg := &TrainConfig{
		ClientPurchasesFile:  "purchases.tsv",
		ProductsFile:         "products.csv",
		ProductsEnrichedFile: "products_enriched.csv",
		FeaturesFile:         "features.csv",
		GTCountFile:          "gt_count.csv",
		VectorsFile:          "item_vectors.json",
		CoocFile:             "cooc.json",
		StoreStatsFile:       "store_stats.json",
		PopularFile:          "popular.json",
		ClientLimit:          1000,
		Implicit:             ImplicitConfig{NumFactors: 64, Epochs: 15},
		PopularK:             100,
	}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("config: data_dir is required")
	}
	if _, err := cfg.Reference(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Reference 解析 recency 基准时间。未配置是错误：基准时间必须显式给定，
// 不允许退回 time.Now 之类的环境态。
func (c *TrainConfig) Reference() (time.Time, error) {
	return parseReference(c.ReferenceTime)
}

// Path 把相对文件名拼到 DataDir 下。
func (c *TrainConfig) Path(name string) string {
	return c.DataDir + "/" + name
}

// LoadServeConfig 加载并校验服务配置。
func LoadServeConfig(path string) (*ServeConfig, error) {
	cfg := &ServeConfig{
		Addr:           ":8000",
		VectorsFile:    "item_vectors.json",
		CoocFile:       "cooc.json",
		StoreStatsFile: "store_stats.json",
		ProductsFile:   "products_enriched.csv",
		PopularFile:    "popular.json",
		Limit:          30,
		NumCandidates:  100,
		LogLevel:       "info",
	}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("config: data_dir is required")
	}
	if _, err := cfg.Reference(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Reference 解析 recency 基准时间。
func (c *ServeConfig) Reference() (time.Time, error) {
	return parseReference(c.ReferenceTime)
}

// Path 把相对文件名拼到 DataDir 下。
func (c *ServeConfig) Path(name string) string {
	return c.DataDir + "/" + name
}

func parseReference(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("config: reference_time is required")
	}
	t, err := core.ParseDatetime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: reference_time: %w", err)
	}
	return t, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
