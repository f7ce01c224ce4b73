package config

import "github.com/spf13/viper"

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress      string `mapstructure:"SERVER_ADDRESS"`
	PostgresConn       string `mapstructure:"POSTGRES_CONN"`
	MigrationURL       string `mapstructure:"MIGRATION_URL"`
	ProfilesDir        string `mapstructure:"PROFILES_DIR"`
	PayRequiresReceipt bool   `mapstructure:"-"`
}

// LoadConfig загружает конфигурацию из файла
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("PROFILES_DIR", "profiles")
	viper.SetDefault("PAY_REQUIRES_RECEIPT", true)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}
	if err = viper.Unmarshal(&cfg); err != nil {
		return
	}
	cfg.PayRequiresReceipt = viper.GetBool("PAY_REQUIRES_RECEIPT")
	return
}
