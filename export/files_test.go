package export

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/storycard/layout"
)

func TestFileName(t *testing.T) {
	author := layout.AuthorInfo{Name: "Ann Lee", Title: "My Story"}
	if got := FileName(author, 2); got != "ann-lee-my-story-p02.png" {
		t.Fatalf("文件名不符: %q", got)
	}
	// 空作者信息退回默认前缀。
	if got := FileName(layout.AuthorInfo{}, 1); got != "storycard-p01.png" {
		t.Fatalf("默认文件名不符: %q", got)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	author := layout.AuthorInfo{Name: "Ann", Title: "Tale"}
	results := []Result{
		{ID: "a", PageNumber: 1, Image: []byte("one")},
		{ID: "b", PageNumber: 2, Err: "渲染失败"},
		{ID: "c", PageNumber: 3, Image: []byte("three")},
	}
	if err := WriteFiles(dir, author, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName(author, 1)))
	if err != nil || string(data) != "one" {
		t.Fatalf("第 1 页内容不符: %q err=%v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName(author, 2))); !os.IsNotExist(err) {
		t.Fatalf("失败页不应写盘")
	}
}

func TestWriteArchive(t *testing.T) {
	author := layout.AuthorInfo{Name: "Ann", Title: "Tale"}
	results := []Result{
		{ID: "a", PageNumber: 1, Image: []byte("one")},
		{ID: "b", PageNumber: 2, Err: "失败"},
	}
	var buf bytes.Buffer
	if err := WriteArchive(&buf, author, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("读取压缩包失败: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("压缩包条目数不符: %d", len(zr.File))
	}
	if zr.File[0].Name != FileName(author, 1) {
		t.Fatalf("条目名不符: %q", zr.File[0].Name)
	}
}
