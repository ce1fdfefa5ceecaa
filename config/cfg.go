// Package config 负责程序配置的装载与保存（YAML），以及标准日志器的构建。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/storycard/export"
	"github.com/ByLCY/storycard/layout"
)

// Config 是程序的全部可配置项。
type Config struct {
	Editor  layout.Settings   `yaml:"editor"`
	Author  layout.AuthorInfo `yaml:"author"`
	Export  ExportConfig      `yaml:"export"`
	Logging LoggingConfig     `yaml:"logging"`
}

// ExportConfig 配置批量导出。
type ExportConfig struct {
	ChunkSize   int    `yaml:"chunk_size"`
	OutDir      string `yaml:"out_dir"`
	Archive     string `yaml:"archive,omitempty"`      // 非空时额外打包为该 zip 文件
	GlobalAlign string `yaml:"global_align,omitempty"` // 覆盖每页样式的全局对齐
}

// Default 返回参考配置。
func Default() *Config {
	return &Config{
		Editor: layout.DefaultSettings(),
		Export: ExportConfig{
			ChunkSize: export.DefaultChunkSize,
			OutDir:    "output",
		},
		Logging: LoggingConfig{Level: "normal"},
	}
}

// Load 读取 YAML 配置；path 为空时返回默认配置。
// 文件中省略的字段保持默认值。
func Load(path string) (*Config, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	conf.normalize()
	return conf, nil
}

// Save 把当前配置写回 YAML 文件（设置导出）。
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入配置 %s 失败: %w", path, err)
	}
	return nil
}

// normalize 把非法或缺省的数值回填为参考值。
func (c *Config) normalize() {
	def := layout.DefaultSettings()
	if c.Editor.PageCount <= 0 {
		c.Editor.PageCount = def.PageCount
	}
	if c.Editor.FontSizePx <= 0 {
		c.Editor.FontSizePx = def.FontSizePx
	}
	if c.Editor.LineHeight <= 0 {
		c.Editor.LineHeight = def.LineHeight
	}
	if c.Editor.FontFamily == "" {
		c.Editor.FontFamily = def.FontFamily
	}
	if c.Editor.Geometry.WidthPx <= 0 || c.Editor.Geometry.HeightPx <= 0 {
		c.Editor.Geometry = def.Geometry
	}
	if c.Export.ChunkSize <= 0 {
		c.Export.ChunkSize = export.DefaultChunkSize
	}
	if c.Export.OutDir == "" {
		c.Export.OutDir = "output"
	}
}
