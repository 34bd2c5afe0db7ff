package serve

import (
	"fmt"
	cmdUtil "github.com/adrodb/adrodb/cmd/util"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/adrodb/adrodb/rest/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"os/signal"
	"strings"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the adrodb server",
		Long:    `Start the adrodb server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is ADRODB_<flag> (e.g. ADRODB_ENDPOINT=tcp://0.0.0.0:8080)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "db"
	ServeCmd.PersistentFlags().String(key, engine.DefaultFilename, cmdUtil.WrapString("Path of the database file. The special value :memory: keeps all data in memory for the lifetime of the process"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "tcp://0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (tcp://host:port or unix:///path/to.sock)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("Read and write timeout in seconds for API requests"))

	key = "collections"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of collections to materialize at startup (e.g. users,sessions)"))

	key = "auto-create"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Materialize unknown collections on first access instead of answering not_initialized"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "log-json"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Emit logs as JSON instead of console output"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse collections, validating names before the server touches the engine
	serveCmdConfig.Collections = nil
	if list := viper.GetString("collections"); list != "" {
		for _, name := range strings.Split(list, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, err := collection.New(name); err != nil {
				return fmt.Errorf("invalid collection %q: %w", name, err)
			}
			serveCmdConfig.Collections = append(serveCmdConfig.Collections, name)
		}
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.DBPath = viper.GetString("db")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	serveCmdConfig.AutoCreate = viper.GetBool("auto-create")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.LogJSON = viper.GetBool("log-json")

	return nil
}

// run starts the adrodb server and blocks until SIGINT or SIGTERM
func run(cmd *cobra.Command, _ []string) error {
	logger, err := common.NewLogger(serveCmdConfig.LogLevel, serveCmdConfig.LogJSON)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := engine.NewStore(serveCmdConfig.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing engine", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.NewServer(*serveCmdConfig, store, logger).Serve(ctx)
}
