package cmdapp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/heirko/go-contrib/logrusHelper"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	//Config is a viper based application config
	Config = viper.New()
	//Log is applications logger
	Log = logrus.New()

	configFile = ""
)

// InitApplication initializes the app by reading config file
func InitApplication(rootCommand *cobra.Command) {
	// nested keys come from env with '_': SIC_URL -> sic.url, CALLBACK_TTL -> callback.ttl
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Config.AutomaticEnv()
	cobra.OnInitialize(initConfig)
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file (default is config.yaml in the working or the app directory)")
}

func initConfig() {
	err := readConfig()
	initLog()
	CheckOrPanic(err, "Can't read config")
	if f := Config.ConfigFileUsed(); f != "" {
		Log.Info("Config loaded from: ", f)
	}
	Log.Infof("API: %s, callbacks: %s", Config.GetString("sic.url"), Config.GetString("callback.url"))
}

// readConfig fails only if the file was set explicitly, otherwise env and defaults are enough
func readConfig() error {
	if configFile != "" {
		Config.SetConfigFile(configFile)
		if err := Config.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "Can't read %s", configFile)
		}
		watchConfig()
		return nil
	}
	Config.SetConfigName("config")
	Config.AddConfigPath(".")
	if ex, err := os.Executable(); err == nil {
		Config.AddConfigPath(filepath.Dir(ex))
	}
	if err := Config.ReadInConfig(); err != nil {
		Log.Warn("No config file: ", err)
		return nil
	}
	watchConfig()
	return nil
}

// logger settings are the only ones applied without restart
func watchConfig() {
	Config.OnConfigChange(onConfigChange)
	Config.WatchConfig()
}

func onConfigChange(e fsnotify.Event) {
	if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	Log.Infof("Config changed: %s, reloading logger", e.Name)
	initLog()
}

func initLog() {
	initDefaultLogConfig()
	c := logrusHelper.UnmarshalConfiguration(Config.Sub("logger"))
	err := logrusHelper.SetConfig(Log, c)
	if err != nil {
		Log.Error("Can't init log ", err)
	}
}

func initDefaultLogConfig() {
	defaultLogConfig := map[string]interface{}{
		"level":                              "info",
		"formatter.name":                     "text",
		"formatter.options.full_timestamp":   true,
		"formatter.options.timestamp_format": "2006-01-02T15:04:05.000",
	}
	Config.SetDefault("logger", defaultLogConfig)
}

func logPanic() {
	if r := recover(); r != nil {
		Log.Error(r)
		os.Exit(1)
	}
}

//Execute the main command
func Execute(cmd *cobra.Command) {
	defer logPanic()
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}

//CheckOrPanic panics if err != nil
func CheckOrPanic(err error, msg string) {
	if err != nil {
		if msg == "" {
			panic(err)
		} else {
			panic(errors.Wrap(err, msg))
		}
	}
}

//LogIf logs error if err != nil
func LogIf(err error) {
	if err != nil {
		Log.Error(err)
	}
}
