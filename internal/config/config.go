package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type MLMConfig struct {
	Env          string `yaml:"env"`
	HTTPServer   `yaml:"http_server"`
	MLMDB        `yaml:"mlm_db"`
	LogConfig    `yaml:"log_config"`
	Redis        `yaml:"redis"`
	KafkaService `yaml:"kafka-service"`
	Engine       `yaml:"engine"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type MLMDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaService struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type Engine struct {
	MaxRebateLevel           int           `yaml:"max_rebate_level" env-default:"10"`
	QualificationWindowDays  int           `yaml:"qualification_window_days" env-default:"30"`
	MatchingRatePercent      float64       `yaml:"matching_rate_percent" env-default:"10"`
	CarryForward             bool          `yaml:"carry_forward" env-default:"false"`
	CacheTTL                 time.Duration `yaml:"cache_ttl" env-default:"60s"`
	RankEvalInterval         time.Duration `yaml:"rank_eval_interval" env-default:"10m"`
	GenealogyMaxPageSize     int           `yaml:"genealogy_max_page_size" env-default:"200"`
	GenealogyDefaultMaxDepth int           `yaml:"genealogy_default_max_depth" env-default:"20"`
}

func MustLoad() *MLMConfig {

	// Processing env config variable and file
	configPath := os.Getenv("MLM_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("MLM_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg MLMConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
