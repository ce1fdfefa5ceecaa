package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"

	"github.com/ByLCY/storycard/layout"
)

// FileName 由作者署名、作品标题与页号生成导出文件名。
func FileName(author layout.AuthorInfo, pageNumber int) string {
	base := slug.Make(strings.TrimSpace(author.Name + " " + author.Title))
	if base == "" {
		base = "storycard"
	}
	return fmt.Sprintf("%s-p%02d.png", base, pageNumber)
}

// WriteFiles 把成功的结果写入 dir 下的 PNG 文件。
// 渲染失败的任务只是跳过写盘，其错误由 CombineErrors 统一上报。
func WriteFiles(dir string, author layout.AuthorInfo, results []Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	var errs error
	for _, res := range results {
		if res.Failed() {
			continue
		}
		path := filepath.Join(dir, FileName(author, res.PageNumber))
		if err := os.WriteFile(path, res.Image, 0o644); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("写入 %s 失败: %w", path, err))
		}
	}
	return errs
}

// WriteArchive 把成功的结果打包为一个 zip 写入 w，供下载侧使用。
// 渲染失败的任务不进入压缩包。
func WriteArchive(w io.Writer, author layout.AuthorInfo, results []Result) error {
	zw := zip.NewWriter(w)
	var errs error
	for _, res := range results {
		if res.Failed() {
			continue
		}
		entry, err := zw.Create(FileName(author, res.PageNumber))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("创建压缩条目失败: %w", err))
			continue
		}
		if _, err := entry.Write(res.Image); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("写入压缩条目失败: %w", err))
		}
	}
	if err := zw.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("关闭压缩包失败: %w", err))
	}
	return errs
}
