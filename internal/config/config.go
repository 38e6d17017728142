package config

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var config_singleton *ConfigSingleTon
var muonce sync.Once

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	DbName         string `mapstructure:"POSTGRES_DB"`
	DbHost         string `mapstructure:"POSTGRES_HOST"`
	DbPort         string `mapstructure:"POSTGRES_PORT"`
	DbUser         string `mapstructure:"POSTGRES_USER"`
	DbPas          string `mapstructure:"POSTGRES_PASSWORD"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPas       string `mapstructure:"REDIS_PASSWORD"`
	KafkaBrokers   string `mapstructure:"KAFKA_BROKERS"`
	KafkaSaleTopic string `mapstructure:"KAFKA_SALE_TOPIC"`
	KafkaParts     int    `mapstructure:"KAFKA_PARTITIONS"`
}

func GetConfig() *Config {
	initConfig()
	config_singleton.mu.RLock()
	defer config_singleton.mu.RUnlock()
	return config_singleton.Config
}

func initConfig() {
	if config_singleton == nil {
		muonce.Do(func() {
			config_singleton = &ConfigSingleTon{}
			if cf, err := loadConfig(); err == nil {
				config_singleton.Config = cf
			} else {
				log.Fatal("error read config")
			}
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				if cf, err := loadConfig(); err == nil {
					config_singleton.mu.Lock()
					config_singleton.Config = cf
					config_singleton.mu.Unlock()
				} else {
					log.Panic("failed to reload config file")
				}
			})
		})
	}
}

/*
單純回傳錯誤  由外部決定要不要Fatal, 畢竟有可能有替代方案
*/
func loadConfig() (cf *Config, err error) {
	cf = &Config{}

	viper.AddConfigPath(".")
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		return nil, err
	}

	if err = viper.Unmarshal(cf); err != nil {
		return nil, err
	}
	return cf, nil
}
