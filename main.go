package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ByLCY/storycard/binding"
	"github.com/ByLCY/storycard/config"
	"github.com/ByLCY/storycard/editor"
	"github.com/ByLCY/storycard/export"
	"github.com/ByLCY/storycard/layout"
	"github.com/ByLCY/storycard/renderer"
	canvassurface "github.com/ByLCY/storycard/renderer/canvas"
	"github.com/ByLCY/storycard/styles"
)

func main() {
	input := flag.String("in", "story.txt", "故事文本路径（换行分段）")
	confPath := flag.String("config", "", "YAML 配置路径")
	stylePath := flag.String("styles", "", "样式表 DSL 路径")
	bgDir := flag.String("bg", "", "背景图目录（page-1.png、page-2.jpg ...）")
	outDir := flag.String("out", "", "PNG 输出目录（覆盖配置）")
	archive := flag.String("zip", "", "额外打包为 zip 的输出路径（覆盖配置）")
	title := flag.String("title", "", "作品标题（覆盖配置，仅占用首页预算）")
	author := flag.String("author", "", "作者署名（覆盖配置）")
	align := flag.String("align", "", "全局水平对齐，覆盖每页样式（left/center/right）")
	dataJSON := flag.String("data", "", "绑定到故事文本的 JSON 数据")
	debugPath := flag.String("debug", "", "分页调试 JSON 输出路径")
	flag.Parse()

	conf, err := config.Load(*confPath)
	if err != nil {
		log.Fatalf("装载配置失败: %v", err)
	}
	if *outDir != "" {
		conf.Export.OutDir = *outDir
	}
	if *archive != "" {
		conf.Export.Archive = *archive
	}
	if *align != "" {
		conf.Export.GlobalAlign = *align
	}
	if *title != "" {
		conf.Author.Title = *title
	}
	if *author != "" {
		conf.Author.Name = *author
	}

	logger, err := conf.Logging.Prepare()
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(conf, *input, *stylePath, *bgDir, *dataJSON, *debugPath, logger); err != nil {
		fail(logger, err)
	}
	fmt.Printf("已导出页面至：%s\n", conf.Export.OutDir)
}

var exitFn = os.Exit

// fail 在退出前显式刷新日志缓冲；os.Exit 不执行 defer，最后一条错误
// 日志必须在这里落盘。
func fail(logger *zap.Logger, err error) {
	logger.Error("导出失败", zap.Error(err))
	_ = logger.Sync()
	exitFn(1)
}

// run 串联读入、分页与批量导出。
func run(conf *config.Config, inputPath, stylePath, bgDir, dataJSON, debugPath string, logger *zap.Logger) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("无法读取故事文本 %s: %w", inputPath, err)
	}
	text := string(raw)

	// 绑定数据在重排之前插值，保证分页与渲染看到同一份文本。
	data := map[string]any{
		"author": map[string]any{"name": conf.Author.Name, "title": conf.Author.Title},
	}
	if dataJSON != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(dataJSON), &extra); err != nil {
			return fmt.Errorf("解析 data JSON 失败: %w", err)
		}
		for k, v := range extra {
			data[k] = v
		}
	}
	text = binding.Interpolate(text, data)

	defStyle := layout.DefaultTextStyle()
	perPage := map[int]layout.TextStyle{}
	if stylePath != "" {
		f, err := os.Open(stylePath)
		if err != nil {
			return fmt.Errorf("无法打开样式表 %s: %w", stylePath, err)
		}
		sheet, parseErr := styles.Parse(f)
		f.Close()
		if parseErr != nil {
			return fmt.Errorf("解析样式表失败: %w", parseErr)
		}
		defStyle, perPage, err = sheet.Resolve(defStyle)
		if err != nil {
			return err
		}
	}

	surfaceOpts := canvassurface.Options{Log: logger}
	surface := canvassurface.NewSurface(surfaceOpts)
	// 字体就绪屏障：首次度量前装载所需字族。
	if err := surface.Preload(conf.Editor.FontFamily); err != nil {
		return fmt.Errorf("装载字体失败: %w", err)
	}

	session, err := editor.NewSession(editor.Options{
		Settings:     conf.Editor,
		Author:       conf.Author,
		Measurer:     surface,
		Log:          logger,
		DefaultStyle: &defStyle,
		Styles:       perPage,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	session.SetText(text)
	if err := session.ReflowNow(); err != nil {
		return fmt.Errorf("分页失败: %w", err)
	}
	if overflow := session.Overflow(); overflow != "" {
		logger.Warn("文本超出固定页数，超出部分不会被导出",
			zap.Int("overflowChars", len(overflow)))
	}

	if bgDir != "" {
		if err := assignBackgrounds(session, bgDir); err != nil {
			return err
		}
	}

	if debugPath != "" {
		if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
		if err := layout.WriteDebugJSON(session.Partition(), debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	sched := export.NewScheduler(func() renderer.PageRenderer {
		// 每个 worker 独占一个渲染面；先过字体屏障再进入度量。
		ws := canvassurface.NewSurface(surfaceOpts)
		if err := ws.Preload(conf.Editor.FontFamily); err != nil {
			logger.Warn("worker 装载字体失败", zap.Error(err))
		}
		return ws
	}, export.SchedulerOptions{ChunkSize: conf.Export.ChunkSize, Log: logger})

	results, err := session.Export(context.Background(), sched, conf.Export.GlobalAlign, func(p export.Progress) {
		logger.Info("导出进度", zap.Int("completed", p.Completed), zap.Int("total", p.Total))
	})
	if err != nil {
		return err
	}

	if err := export.WriteFiles(conf.Export.OutDir, session.Author(), results); err != nil {
		return err
	}
	if conf.Export.Archive != "" {
		f, err := os.Create(conf.Export.Archive)
		if err != nil {
			return fmt.Errorf("创建压缩包 %s 失败: %w", conf.Export.Archive, err)
		}
		defer f.Close()
		if err := export.WriteArchive(f, session.Author(), results); err != nil {
			return err
		}
	}
	return export.CombineErrors(results)
}

// assignBackgrounds 按 page-<n>.<ext> 命名约定把目录中的图片指给对应页。
func assignBackgrounds(session *editor.Session, dir string) error {
	pages := session.Pages()
	for i := range pages {
		found := ""
		for _, ext := range []string{"png", "jpg", "jpeg", "gif"} {
			candidate := filepath.Join(dir, fmt.Sprintf("page-%d.%s", i+1, ext))
			if _, err := os.Stat(candidate); err == nil {
				found = candidate
				break
			}
		}
		if found == "" {
			continue
		}
		abs, err := filepath.Abs(found)
		if err != nil {
			return fmt.Errorf("解析背景路径 %s 失败: %w", found, err)
		}
		if err := session.SetBackground(i, renderer.Background{Path: abs}); err != nil {
			return err
		}
	}
	return nil
}
