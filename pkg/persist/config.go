package persist

import (
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config supplies the persistence base path and the optional anti-forgery
// token forwarded on API requests.
type Config interface {
	BasePath() string
	Token() string
}

// LoadConfig reads .grid config (yaml implicit) from GRID_CONFIG_PATH or
// the working directory, with GRID_* environment overrides.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.grid.db")
	viper.SetConfigName(".grid")
	viper.SetEnvPrefix("GRID")
	viper.AutomaticEnv()

	if override := os.Getenv("GRID_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}

	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, err
	}

	return &fileConfig{Path: path, APIToken: viper.GetString("token")}, nil
}

type fileConfig struct {
	Path     string `json:"path"`
	APIToken string `json:"token"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) Token() string {
	return f.APIToken
}
