package main

import (
	"fmt"
	"os"

	"github.com/felixge/fgprof"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talostrading/xhr"
	"github.com/talostrading/xhr/config"
)

var rootCmd = &cobra.Command{
	Use:   "postjson",
	Short: "POST a JSON payload and print the response",
	Long: `postjson sends a single asynchronous POST carrying a JSON payload, by default
{"value":"value"} to http://localhost/post/json, and prints the response text
to stdout once the request is done. Logs go to stderr.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("config", "c", "", "path to a YAML configuration file")
	flags.String("url", xhr.DefaultURL, "endpoint the payload is posted to")
	flags.String("method", xhr.DefaultMethod.String(), "request method")
	flags.String("transport", config.TransportWire, "transport: wire or http")
	flags.Duration("timeout", 0, "bound on the whole exchange, 0 for none")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", config.FormatJSON, "log format: json or console")
	flags.String("profile", "", "write an fgprof profile in pprof format to this file")
}

func run(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}

	if profile, _ := cmd.Flags().GetString("profile"); profile != "" {
		f, err := os.Create(profile)
		if err != nil {
			return err
		}
		defer f.Close()

		stop := fgprof.Start(f, fgprof.FormatPprof)
		defer func() {
			if err := stop(); err != nil {
				fmt.Fprintf(os.Stderr, "could not write profile: %v\n", err)
			}
		}()
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	env, err := cfg.Envelope()
	if err != nil {
		return err
	}

	metrics, err := xhr.NewMetrics(nil)
	if err != nil {
		return err
	}

	loop := xhr.NewLoop()

	d, err := xhr.NewDispatcher(
		xhr.WithEnvelope(env),
		xhr.WithTransport(cfg.NewTransport()),
		xhr.WithLoop(loop),
		xhr.WithLogger(logger),
		xhr.WithOutput(cmd.OutOrStdout()),
		xhr.WithTimeout(cfg.Timeout),
		xhr.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	defer d.Close()

	var dispatchErr error
	d.AsyncDispatch(func(err error, _ *xhr.Response) {
		dispatchErr = err
		loop.Close()
	})

	if err := loop.Run(); err != nil {
		return err
	}

	snap := metrics.Snapshot()
	logger.Debug("latency",
		zap.Int64("count", snap.Count),
		zap.Duration("min", snap.Min),
		zap.Duration("mean", snap.Mean),
		zap.Duration("max", snap.Max),
		zap.Duration("p50", snap.P50),
		zap.Duration("p99", snap.P99),
	)

	return dispatchErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
