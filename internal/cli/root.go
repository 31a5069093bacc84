package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-markdown-shield/internal/config"
	"github.com/nerdneilsfield/go-markdown-shield/internal/logger"
	"github.com/nerdneilsfield/go-markdown-shield/internal/renderer"
	"github.com/nerdneilsfield/go-markdown-shield/pkg/htmlparse"
	"github.com/nerdneilsfield/go-markdown-shield/pkg/shield"
)

var (
	// 命令行标志变量
	cfgFile      string
	debugMode    bool
	showVersion  bool
	shieldOnly   bool // 只屏蔽不渲染，输出屏蔽后的文本，便于调试
	noDirectives bool // 禁用模板指令屏蔽
	noCodeBlocks bool // 禁用代码块屏蔽
	noRawMarkup  bool // 禁用原始标记屏蔽
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mdshield [flags] input_file [output_file]",
		Short: "mdshield 在 Markdown 渲染前后屏蔽并还原模板指令、代码块和原始标记",
		Long: `mdshield 是一个 Markdown 内容屏蔽预处理器。
渲染之前把模板指令、代码块和块级原始标记替换为占位符，
渲染之后按相反顺序逐字节还原，保证渲染器只看到安全的 Markdown 正文。
省略 output_file 时结果写到标准输出。`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("mdshield %s (commit %s, built %s)\n", version, commit, buildDate)
				return nil
			}
			if len(args) < 1 {
				return fmt.Errorf("input file is required")
			}
			return run(args)
		},
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（默认搜索 ./.mdshield.yaml 和 ~/.mdshield.yaml）")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "开启调试日志")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "显示版本信息")
	rootCmd.Flags().BoolVar(&shieldOnly, "shield-only", false, "只屏蔽不渲染，输出屏蔽后的文本")
	rootCmd.Flags().BoolVar(&noDirectives, "no-directives", false, "禁用模板指令屏蔽")
	rootCmd.Flags().BoolVar(&noCodeBlocks, "no-code-blocks", false, "禁用代码块屏蔽")
	rootCmd.Flags().BoolVar(&noRawMarkup, "no-raw-markup", false, "禁用原始标记屏蔽")

	return rootCmd
}

// run 读取输入文件，执行流水线，写出结果
func run(args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// 命令行标志覆盖配置文件
	if debugMode {
		cfg.Debug = true
	}
	if noDirectives {
		cfg.ShieldDirectives = false
	}
	if noCodeBlocks {
		cfg.ShieldCodeBlocks = false
	}
	if noRawMarkup {
		cfg.ShieldRawMarkup = false
	}

	log := logger.NewLogger(cfg.Debug)
	defer func() {
		_ = log.Sync()
	}()

	inputPath := args[0]
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	rend := renderer.New()
	pipeline := shield.NewPipeline(htmlparse.NewParser(), rend.Render,
		shield.WithLogger(log),
		shield.WithDirectives(cfg.ShieldDirectives),
		shield.WithCodeBlocks(cfg.ShieldCodeBlocks),
		shield.WithRawMarkup(cfg.ShieldRawMarkup),
	)

	var result string
	if shieldOnly {
		result, _ = pipeline.Shield(string(content))
	} else {
		result, err = pipeline.Run(string(content))
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", inputPath, err)
		}
	}

	log.Info("processing completed",
		zap.String("input", inputPath),
		zap.Int("input_length", len(content)),
		zap.Int("output_length", len(result)))

	if len(args) < 2 {
		fmt.Print(result)
		return nil
	}
	if err := os.WriteFile(args[1], []byte(result), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
