package transcription

import (
	"context"
	"net/url"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/pkg/callback"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	transcriberapi "bitbucket.org/airenas/speechjobs/internal/pkg/transcriber"
	"bitbucket.org/airenas/speechjobs/internal/pkg/utils"
	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"
)

var appName = "Speech Jobs Transcription Service"

var rootCmd = &cobra.Command{
	Use:   "transcriptionService",
	Short: appName,
	Long:  `HTTP server to start remote transcription jobs and resolve them on callbacks`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8000)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := ServiceData{}
	data.health = healthcheck.NewHandler()

	client, err := transcriberapi.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init transcriber client")
	data.AuthChecker = client
	if u, err := url.Parse(client.JobsURL()); err == nil && u.Hostname() != "" {
		data.health.AddReadinessCheck("sic-dns", healthcheck.DNSResolveCheck(u.Hostname(), 2*time.Second))
	}

	cbURL, err := utils.GetURLFromConfig("callback.url")
	cmdapp.CheckOrPanic(err, "Can't init callback URL")
	registry, err := callback.NewRegistry(cbURL, utils.GetDurationFromConfig("callback.ttl", 24*time.Hour))
	cmdapp.CheckOrPanic(err, "Can't init callback registry")
	data.Callbacks = registry
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registry.StartExpire(ctx, time.Minute)

	data.Submitter, err = NewSubmitter(client, registry)
	cmdapp.CheckOrPanic(err, "Can't init submitter")

	data.Hub = NewHub(utils.GetDurationFromConfig("results.keep", 10*time.Minute))
	data.Results = data.Hub
	data.health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(10000))

	err = registerMetrics(func() float64 { return float64(registry.Pending()) },
		func() float64 { return float64(data.Hub.Held()) })
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	data.Port = cmdapp.Config.GetInt("port")
	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}
