// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors_origins", "host_cors_origins")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("jwt.expiry_hours", "jwt_expiry_hours")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("storage.type", "storage_type")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("aws.access_key_id", "aws_access_key_id")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.bucket", "aws_bucket")

	v.BindEnv("ocr.languages", "ocr_languages")
	v.BindEnv("ocr.tessdata_prefix", "ocr_tessdata_prefix")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("jwt.expiry_hours", 72)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.type", "s3")

	v.SetDefault("upload.max_size", 25)

	v.SetDefault("ocr.languages", []string{"eng"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("jwt.expiry_hours") <= 0 {
		return errors.New("jwt.expiry_hours must be bigger than 0")
	}

	if !slices.Contains(validDBDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.access_key_id") == "" {
			return errors.New("aws access key id can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if v.GetString("aws.region") == "" {
			return errors.New("aws region can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("aws bucket can't be empty")
		}
	case "memory":
		fmt.Println("[WARNING]: Using the in-memory scan store. Stored files are lost on restart, use S3 for anything serious")
	default:
		return errors.New("invalid storage type provided")
	}

	if len(v.GetStringSlice("ocr.languages")) == 0 {
		return errors.New("at least one OCR language must be configured")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
