package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jimyag/hostplay/pkg/logger"
)

// 退出码：1 表示加载或参数错误，2 表示有主机中止
const (
	exitError  = 1
	exitFailed = 2
)

// errHostsFailed 运行完成但有主机中止
var errHostsFailed = errors.New("one or more hosts aborted")

var opts struct {
	hostConfig     string
	hostScript     string
	forks          int
	timeout        time.Duration
	connectTimeout time.Duration
	knownHosts     string
	port           int
	output         string
	verbose        bool
	quiet          bool
}

var rootCmd = &cobra.Command{
	Use:   "hostplay",
	Short: "Run declarative playbooks on remote hosts over SSH",
	Long: `hostplay runs ordered task lists (shell, copy, search_replace, template)
on many hosts in parallel. Each host runs its tasks sequentially and stops at
the first failure; other hosts are not affected.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if opts.verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&opts.hostConfig, "host-config", "c", "", "host config file (YAML)")
	f.StringVarP(&opts.hostScript, "host-script", "s", "", "executable that prints the host config on stdout")
	f.IntVarP(&opts.forks, "forks", "f", 0, "maximum number of hosts to run in parallel (0 = all)")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-command timeout (0 = none)")
	f.DurationVar(&opts.connectTimeout, "connect-timeout", 30*time.Second, "SSH connect timeout")
	f.StringVar(&opts.knownHosts, "known-hosts", "", "known_hosts file used to verify host keys")
	f.IntVar(&opts.port, "port", 22, "default SSH port")
	f.StringVarP(&opts.output, "output", "o", "text", "report format: text, json or yaml")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "only print failures while running")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(adhocCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	// 日志写到 stderr，stdout 只输出运行报告
	logger.Init(logger.DefaultConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errHostsFailed):
		os.Exit(exitFailed)
	default:
		logger.Errorf("%v", err)
		os.Exit(exitError)
	}
}
