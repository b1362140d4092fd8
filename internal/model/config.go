package model

import "time"

// Config is the complete genediff configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	BioMart      BioMartConfig      `yaml:"biomart" mapstructure:"biomart"`
	Data         DataConfig         `yaml:"data" mapstructure:"data"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Sources      SourcesConfig      `yaml:"sources" mapstructure:"sources"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls outbound requests
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the BioMart response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitingConfig is applied per registrable domain
type RateLimitingConfig struct {
	RequestsPerSecond float64               `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int                   `yaml:"burst_size" mapstructure:"burst_size"`
	Domains           map[string]DomainRate `yaml:"domains,omitempty" mapstructure:"domains"`
}

// DomainRate overrides the default rate for one domain, e.g. ensembl.org
type DomainRate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig bounds worker counts
type ConcurrencyConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`
	CheckWorkers int `yaml:"check_workers" mapstructure:"check_workers"`
}

// BioMartConfig describes the gene identifier query
type BioMartConfig struct {
	URL        string            `yaml:"url" mapstructure:"url"`
	Dataset    string            `yaml:"dataset" mapstructure:"dataset"`
	Attributes []string          `yaml:"attributes" mapstructure:"attributes"`
	Filters    map[string]string `yaml:"filters,omitempty" mapstructure:"filters"` // e.g. chromosome_name: "17"
	Output     string            `yaml:"output" mapstructure:"output"`
}

// DataConfig locates raw downloads and processed tables
type DataConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
	BioGRIDFile  string `yaml:"biogrid_file,omitempty" mapstructure:"biogrid_file"`
}

// ServerConfig controls the comparison API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxGenesPerList int           `yaml:"max_genes_per_list" mapstructure:"max_genes_per_list"`
	ResultCacheSize int           `yaml:"result_cache_size" mapstructure:"result_cache_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Mode            string        `yaml:"mode" mapstructure:"mode"`
}

// SourcesConfig controls attribution table handling
type SourcesConfig struct {
	TablePath       string            `yaml:"table_path" mapstructure:"table_path"`
	LicenseMap      map[string]string `yaml:"license_map,omitempty" mapstructure:"license_map"`
	LicensePatterns []LicensePattern  `yaml:"license_patterns,omitempty" mapstructure:"license_patterns"`
}

// LicensePattern maps a regular expression over license text to a license kind
type LicensePattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Kind    string `yaml:"kind" mapstructure:"kind"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       2 * time.Minute,
			UserAgent:     "genediff/0.1 (+https://github.com/ppiankov/genediff)",
			MaxBodyBytes:  256 << 20,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".genediff-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      4,
			CheckWorkers: 8,
		},
		BioMart: BioMartConfig{
			URL:        "http://www.ensembl.org/biomart/martservice",
			Dataset:    "hsapiens_gene_ensembl",
			Attributes: []string{"ensembl_gene_id", "entrezgene_id", "hgnc_symbol"},
			Output:     "data_factory/output/human_gene_info.csv",
		},
		Data: DataConfig{
			RawDir:       "raw_data",
			ProcessedDir: "processed_data",
		},
		Server: ServerConfig{
			Addr:            ":8000",
			MaxBodyBytes:    4 << 20,
			MaxGenesPerList: 20000,
			ResultCacheSize: 256,
			ShutdownTimeout: 15 * time.Second,
			Mode:            "release",
		},
		Sources: SourcesConfig{
			TablePath: "DATA_SOURCES.md",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
