package main

import (
	"errors"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/andreiashu/osmfilter"
)

const (
	configFlag            = "config"
	debugFlag             = "debug"
	maxFlag               = "max"
	nameFlag              = "name"
	fuzzyNameFlag         = "fuzzy-name"
	fuzzyDistanceFlag     = "fuzzy-distance"
	tagValueFlag          = "tag-value"
	tagRegexFlag          = "tag-regex"
	tagFancyRegexFlag     = "tag-fancy-regex"
	fancyRegexTimeoutFlag = "fancy-regex-timeout"
	latLonDistanceFlag    = "lat-lon-distance"
	geohashDistanceFlag   = "geohash-distance"
	hiddenTagsFlag        = "hidden-tags"
	workersFlag           = "workers"
	batchSizeFlag         = "batch-size"
	queueSizeFlag         = "queue-size"
	logFormatFlag         = "log-format"
	logLevelFlag          = "log-level"
)

// newRootCommand builds the osmfilter command. Each call gets its own viper
// instance so commands built in tests do not share state.
func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "osmfilter <map-file>",
		Short: "Filter OSM elements by tags, name and distance",
		Long: `Scan an OSM file (.pbf, .osm, .osm.bz2, .osm.gz) and print every element
that matches all given filters. The whole file is always scanned, so the
final counts are exact even when output is capped with --max.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), v, args[0])
			if err != nil {
				return err
			}
			_, err = osmfilter.Run(cmd.Context(), cfg, osmfilter.WithOutput(cmd.OutOrStdout()))
			return err
		},
	}

	defaults := osmfilter.DefaultConfig()
	flags := cmd.Flags()
	flags.String(configFlag, "", "config file (default: config.yaml in . or $HOME/.osmfilter)")
	flags.Bool(debugFlag, false, "Debug mode")
	flags.Uint64P(maxFlag, "m", defaults.MaxResults, "Max number of results to show")
	flags.StringP(nameFlag, "n", "", "Filter name tag (if present) by regex")
	flags.String(fuzzyNameFlag, "", "Filter name tag by approximate match")
	flags.Int(fuzzyDistanceFlag, 1, "Max edit distance for --fuzzy-name (0-3)")
	flags.StringArrayP(tagValueFlag, "t", nil, "Filter by key=value tag")
	flags.StringArrayP(tagRegexFlag, "r", nil, "Filter by regex=regex tag")
	flags.StringArrayP(tagFancyRegexFlag, "f", nil, "Filter by regex=regex tag, using a backtracking engine (lookaround, backreferences)")
	flags.Duration(fancyRegexTimeoutFlag, defaults.Filters.FancyRegexTimeout, "Time limit for one backtracking regex match")
	flags.StringP(latLonDistanceFlag, "l", "", "Filter by lat,lon,distance (in meters)")
	flags.StringP(geohashDistanceFlag, "g", "", "Filter by geohash,distance (in meters)")
	flags.String(hiddenTagsFlag, defaults.HiddenTags, "Regex which tag names to exclude from printing")
	flags.Int(workersFlag, runtime.GOMAXPROCS(0), "Number of scan workers")
	flags.Int(batchSizeFlag, defaults.BatchSize, "Elements per scan partition")
	flags.Int(queueSizeFlag, defaults.QueueCapacity, "Matches buffered for printing")
	flags.String(logFormatFlag, defaults.LogFormat, "Log format (text, json)")
	flags.String(logLevelFlag, defaults.LogLevel, "Log level (none, debug, info, warn, error)")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindConfig(cmd.Flags(), v)
	}

	return cmd
}

// bindConfig lets flags fall back to OSMFILTER_* environment variables and
// the config file, in that order.
func bindConfig(flags *pflag.FlagSet, v *viper.Viper) error {
	v.SetEnvPrefix("OSMFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, _ := flags.GetString(configFlag); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.osmfilter")
	}
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return err
		}
	}

	return v.BindPFlags(flags)
}

// loadConfig resolves the run configuration. Repeatable filters are taken
// from the flag when given, so commas inside patterns survive.
func loadConfig(flags *pflag.FlagSet, v *viper.Viper, mapFile string) (osmfilter.Config, error) {
	cfg := osmfilter.DefaultConfig()
	cfg.MapFile = mapFile
	cfg.Debug = v.GetBool(debugFlag)
	cfg.MaxResults = v.GetUint64(maxFlag)
	cfg.HiddenTags = v.GetString(hiddenTagsFlag)
	cfg.Workers = v.GetInt(workersFlag)
	cfg.BatchSize = v.GetInt(batchSizeFlag)
	cfg.QueueCapacity = v.GetInt(queueSizeFlag)
	cfg.LogFormat = v.GetString(logFormatFlag)
	cfg.LogLevel = v.GetString(logLevelFlag)

	cfg.Filters = osmfilter.Filters{
		Name:              v.GetString(nameFlag),
		FuzzyName:         v.GetString(fuzzyNameFlag),
		FuzzyDistance:     v.GetInt(fuzzyDistanceFlag),
		LatLonDistance:    v.GetString(latLonDistanceFlag),
		GeohashDistance:   v.GetString(geohashDistanceFlag),
		FancyRegexTimeout: v.GetDuration(fancyRegexTimeoutFlag),
	}
	var err error
	if cfg.Filters.TagValue, err = stringArray(flags, v, tagValueFlag); err != nil {
		return cfg, err
	}
	if cfg.Filters.TagRegex, err = stringArray(flags, v, tagRegexFlag); err != nil {
		return cfg, err
	}
	if cfg.Filters.TagFancyRegex, err = stringArray(flags, v, tagFancyRegexFlag); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// stringArray reads a repeatable filter. Flags keep each value whole;
// environment variables hold a comma list; the config file holds a YAML list.
func stringArray(flags *pflag.FlagSet, v *viper.Viper, name string) ([]string, error) {
	if flags.Changed(name) {
		return flags.GetStringArray(name)
	}
	if s, ok := v.Get(name).(string); ok {
		var out []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
	return v.GetStringSlice(name), nil
}
