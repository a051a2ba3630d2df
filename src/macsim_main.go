package mac

/*------------------------------------------------------------------
 *
 * Purpose:	Command line front end for running a scenario.
 *
 * Description:	Reads a scenario file, runs it, and prints a summary.
 *		Optionally prints a trace of every frame as it goes,
 *		and afterwards keeps the final counters available for
 *		Prometheus to scrape until interrupted.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

func MacSimMain(args []string, stdout io.Writer, stderr io.Writer) int {
	var flags = pflag.NewFlagSet("macsim", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var scenarioPath = flags.StringP("scenario", "c", "", "Scenario file (YAML).")
	var duration = flags.DurationP("duration", "d", 0, "Simulated time to run for.  Overrides the scenario.")
	var seed = flags.Int64P("seed", "s", 0, "Random seed.  Overrides the scenario.")
	var trace = flags.BoolP("trace", "t", false, "Print every frame sent and received.")
	var timestampFormat = flags.StringP("timestamp-format", "T", DefaultTraceFormat, "Trace time stamp, 'strftime' format.  Simulated time since midnight.")
	var logLevel = flags.StringP("log-level", "l", "info", "Log level: debug, info, warn, error.")
	var logTimestamps = flags.Bool("log-timestamps", false, "Wall clock time stamps on log lines.")
	var metricsAddr = flags.String("metrics-addr", "", "After the run, serve the final counters for Prometheus on this address, e.g. :9100.")
	var version = flags.CountP("version", "v", "Print version and exit.  -vv adds build details.")
	var help = flags.BoolP("help", "h", false, "Display help text.")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "macsim - run a wireless channel access simulation.\n\n")
		fmt.Fprintf(stderr, "Usage: macsim [options] -c scenario.yaml\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}

		return 2
	}

	if *help {
		flags.Usage()
		return 0
	}

	if *version > 0 {
		PrintVersion(stdout, *version > 1)
		return 0
	}

	if *scenarioPath == "" {
		fmt.Fprintf(stderr, "A scenario file is required.\n\n")
		flags.Usage()

		return 2
	}

	var logger, logErr = NewLogger(stderr, *logLevel, *logTimestamps)
	if logErr != nil {
		fmt.Fprintf(stderr, "%s\n", logErr)
		return 2
	}

	var scenario, err = LoadScenario(*scenarioPath)
	if err != nil {
		logger.Error("cannot load scenario", "err", err)
		return 1
	}

	if flags.Changed("seed") {
		scenario.Seed = *seed
	}

	var opts = []SimulationOption{WithSimulationLogger(logger)}

	if *trace {
		var midnight = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

		var tracer, traceErr = NewTracer(stdout, *timestampFormat, midnight)
		if traceErr != nil {
			logger.Error("bad time stamp format", "err", traceErr)
			return 2
		}

		opts = append(opts, WithSimulationTracer(tracer))
	}

	var sim, buildErr = scenario.Build(opts...)
	if buildErr != nil {
		logger.Error("cannot build simulation", "err", buildErr)
		return 1
	}

	var report, runErr = sim.Run(*duration)

	report.Print(stdout)

	if runErr != nil {
		logger.Error("simulation failed", "err", runErr)
		return 1
	}

	if *metricsAddr != "" {
		if err := serveMetrics(*metricsAddr, sim, logger); err != nil {
			logger.Error("metrics server", "err", err)
			return 1
		}
	}

	return 0
}

// serveMetrics blocks until interrupted.
func serveMetrics(addr string, sim *Simulation, logger *log.Logger) error {
	var reg = prometheus.NewRegistry()
	reg.MustRegister(NewCollector(sim.Engines()))

	var mux = http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	var server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		var shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

/* end macsim_main.go */
