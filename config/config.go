package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App      `json:"app"      toml:"app"`
		HTTP     `json:"http"     toml:"http"`
		DB       `json:"db"       toml:"db"`
		Log      `json:"logger"   toml:"logger"`
		Registry `json:"registry" toml:"registry"`
		Crawler  `json:"crawler"  toml:"crawler"`
		SDN      `json:"sdn"      toml:"sdn"`
		Watcher  `json:"watcher"  toml:"watcher"`
	}

	App struct {
		Name        string `json:"name"        toml:"name"        env:"APP_NAME"`
		Environment string `json:"environment" toml:"environment" env:"ENV_NAME" env-default:"dev"`
		Debug       bool   `json:"debug"       toml:"debug"       env:"DEBUG"    env-default:"false"`
	}

	HTTP struct {
		Port string `json:"port" toml:"port" env:"HTTP_PORT" env-default:"3001"`
	}

	DB struct {
		DatabaseURL       string `json:"database_url"        toml:"database_url"        env:"DATABASE_URL"`
		PoolMax           int32  `json:"pool_max"            toml:"pool_max"            env:"PG_POOL_MAX" env-default:"10"`
		ConnectTimeout    int    `json:"connect_timeout"     toml:"connect_timeout"     env:"PG_POOL_CONN_TIMEOUT" env-default:"5"`
		HealthCheckPeriod int    `json:"health_check_period" toml:"health_check_period" env:"PG_POOL_HEALTHCHECK" env-default:"1"`
	}

	Log struct {
		Level slog.Level `json:"level" toml:"level" env:"LOG_LEVEL"`
	}

	// Registry настройки внешних реестров компаний
	Registry struct {
		OrginfoBaseURL string `json:"orginfo_base_url" toml:"orginfo_base_url" env:"ORGINFO_BASE_URL" env-default:"https://orginfo.uz"`
		EgrulBaseURL   string `json:"egrul_base_url"   toml:"egrul_base_url"   env:"EGRUL_BASE_URL"   env-default:"https://egrul.itsoft.ru"`
		RequestTimeout int    `json:"request_timeout"  toml:"request_timeout"  env:"REGISTRY_TIMEOUT" env-default:"10"`
		// Минимальная задержка между запросами к одному реестру, миллисекунды
		MinRequestDelay int `json:"min_request_delay" toml:"min_request_delay" env:"REGISTRY_MIN_DELAY_MS" env-default:"500"`
	}

	Crawler struct {
		MaxDepth int `json:"max_depth" toml:"max_depth" env:"CRAWLER_MAX_DEPTH" env-default:"5"`
		// Общий дедлайн обогащения одного сообщения, секунды
		EnrichTimeout int `json:"enrich_timeout" toml:"enrich_timeout" env:"ENRICH_TIMEOUT" env-default:"120"`
	}

	SDN struct {
		ListURL         string `json:"list_url"         toml:"list_url"         env:"SDN_LIST_URL" env-default:"https://sanctionslistservice.ofac.treas.gov/api/PublicationPreview/exports/SDN.XML"`
		XMLPath         string `json:"xml_path"         toml:"xml_path"         env:"SDN_XML_PATH" env-default:"./data/sdn.xml"`
		CachePath       string `json:"cache_path"       toml:"cache_path"       env:"SDN_CACHE_PATH" env-default:"./data/sdn_cache.json"`
		DownloadTimeout int    `json:"download_timeout" toml:"download_timeout" env:"SDN_DOWNLOAD_TIMEOUT" env-default:"60"`
		// Интервал фонового обновления списка, часы
		RefreshInterval int `json:"refresh_interval" toml:"refresh_interval" env:"SDN_REFRESH_HOURS" env-default:"24"`
	}

	Watcher struct {
		Enabled  bool   `json:"enabled"   toml:"enabled"   env:"WATCHER_ENABLED" env-default:"false"`
		InboxDir string `json:"inbox_dir" toml:"inbox_dir" env:"WATCHER_INBOX_DIR" env-default:"./inbox"`
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	_, b, _, _ := runtime.Caller(0)
	basePath := filepath.Dir(b)

	configTomlPath := filepath.Join(basePath, "config.toml")
	err := cleanenv.ReadConfig(configTomlPath, cfg)
	if err != nil {
		configJsonPath := filepath.Join(basePath, "config.json")
		err = cleanenv.ReadConfig(configJsonPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	err = cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("env read error: %w", err)
	}

	return cfg, nil
}
