package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/matching"
)

const (
	app       = "jobmatch"
	envPrefix = "JOBMATCH"
)

type Config struct {
	Server    *ServerConfig    `mapstructure:"server"`
	Storage   *StorageConfig   `mapstructure:"storage"`
	Resumes   *ResumesConfig   `mapstructure:"resumes"`
	JSearch   *JSearchConfig   `mapstructure:"jsearch"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Cache     *CacheConfig     `mapstructure:"cache"`
	Scoring   *ScoringConfig   `mapstructure:"scoring"`
	Keywords  *KeywordsConfig  `mapstructure:"keywords"`
	Filters   *FiltersConfig   `mapstructure:"filters"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type ResumesConfig struct {
	Dir string `mapstructure:"dir"`
}

type JSearchConfig struct {
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	BaseURL           string        `mapstructure:"base-url"`
	Host              string        `mapstructure:"host"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
}

type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	Gemini     *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type CacheConfig struct {
	MaxEntries int           `mapstructure:"max-entries"`
	RedisURL   string        `mapstructure:"redis-url"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type ScoringConfig struct {
	KeywordWeight  float64 `mapstructure:"keyword-weight"`
	SemanticWeight float64 `mapstructure:"semantic-weight"`
	MinScore       float64 `mapstructure:"min-score"`
}

type KeywordsConfig struct {
	Exclude []string `mapstructure:"exclude"`
	Extra   []string `mapstructure:"extra"`
}

type FiltersConfig struct {
	ExcludeEmployers []string `mapstructure:"exclude-employers"`
	ExcludeFile      string   `mapstructure:"exclude-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch fetches job listings, ranks them against your resume and tracks your applications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("storage.path", "jobmatch.db")
	v.SetDefault("resumes.dir", "resumes")

	v.SetDefault("jsearch.api-key", "")
	v.SetDefault("jsearch.api-key-file", "")
	v.SetDefault("jsearch.base-url", "")
	v.SetDefault("jsearch.host", "")
	v.SetDefault("jsearch.timeout", 30*time.Second)
	v.SetDefault("jsearch.requests-per-second", 1.0)

	v.SetDefault("embedding.provider", embedding.ProviderHashed)
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("embedding.gemini.api-key", "")
	v.SetDefault("embedding.gemini.api-key-file", "")

	v.SetDefault("cache.max-entries", embedding.DefaultCacheEntries)
	v.SetDefault("cache.redis-url", "")
	v.SetDefault("cache.ttl", embedding.DefaultCacheTTL)

	v.SetDefault("scoring.keyword-weight", matching.DefaultKeywordWeight)
	v.SetDefault("scoring.semantic-weight", matching.DefaultSemanticWeight)
	v.SetDefault("scoring.min-score", 0.0)

	v.SetDefault("keywords.exclude", []string{})
	v.SetDefault("keywords.extra", []string{})

	v.SetDefault("filters.exclude-employers", []string{})
	v.SetDefault("filters.exclude-file", "")
}

// bindEnv maps JOBMATCH_SECTION_KEY variables onto every key and adds the
// conventional names for secrets.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"jsearch.api-key":          {"JSEARCH_API_KEY", envPrefix + "_JSEARCH_API_KEY"},
		"embedding.gemini.api-key": {"GEMINI_API_KEY", envPrefix + "_EMBEDDING_GEMINI_API_KEY"},
		"cache.redis-url":          {"REDIS_URL", envPrefix + "_CACHE_REDIS_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func initConfig() {
	// Variables from .env never override the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("empty configuration")
	}

	return config, nil
}
