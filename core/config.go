package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	databaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	pushConfig struct {
		Provider        string // console | fcm | sns
		BatchSize       int
		CredentialsFile string
		AWSRegion       string
		SNSPlatformArn  string
	}

	feesConfig struct {
		ReminderSchedule string
		ReminderTitle    string
		ReminderBody     string
		ReminderURL      string
	}

	tokensConfig struct {
		InactiveRetention time.Duration
		StaleRetention    time.Duration
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		WorkDir          string
		SendgridApiKey   string
		RollbarToken     string
		defaultFromEmail string

		Server   serverConfig
		Database databaseConfig
		Push     pushConfig
		Fees     feesConfig
		Tokens   tokensConfig
	}
)

func (dbConf databaseConfig) Address() string {
	return net.JoinHostPort(dbConf.Host, dbConf.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

// NewConfig loads the configuration of the current environment (env var ENV).
// Values are read from the environment, prefixed with the upper-cased env name (eg. PROD_DATABASE_HOST),
// after loading `config/.env.<env>` when it exists.
func NewConfig() *Config {
	vpr := viper.New()

	// defaults
	vpr.SetTypeByDefaultValue(true)
	vpr.SetDefault("build", "dev")
	vpr.SetDefault("debug", true)
	vpr.SetDefault("appName", "Coaching")
	vpr.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	vpr.SetDefault("defaultFromEmail", "noreply@localhost")
	vpr.SetDefault("sendgridApiKey", "")
	vpr.SetDefault("rollbarToken", "")

	vpr.SetDefault("server_host", "localhost")
	vpr.SetDefault("server_address", ":8000")
	vpr.SetDefault("server_debugHost", ":4000")
	vpr.SetDefault("server_shutdownTimeout", 5*time.Second)
	vpr.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)

	vpr.SetDefault("database_engine", "postgres")
	vpr.SetDefault("database_host", "localhost")
	vpr.SetDefault("database_port", "5432")
	vpr.SetDefault("database_name", "coaching")
	vpr.SetDefault("database_user", "coaching")
	vpr.SetDefault("database_password", "coaching")
	vpr.SetDefault("database_adminUser", "")
	vpr.SetDefault("database_adminPassword", "")
	vpr.SetDefault("database_disableTLS", true)

	vpr.SetDefault("push_provider", "console")
	vpr.SetDefault("push_batchSize", 500)
	vpr.SetDefault("push_credentialsFile", "")
	vpr.SetDefault("push_awsRegion", "ap-south-1")
	vpr.SetDefault("push_snsPlatformArn", "")

	vpr.SetDefault("fees_reminderSchedule", "0 9 * * *")
	vpr.SetDefault("fees_reminderTitle", "Fee Payment Reminder")
	vpr.SetDefault("fees_reminderBody", "Your monthly fee is due. Please pay as soon as possible to avoid interruptions.")
	vpr.SetDefault("fees_reminderURL", "/fees/history/")

	vpr.SetDefault("tokens_inactiveRetention", 30*24*time.Hour)
	vpr.SetDefault("tokens_staleRetention", 90*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		vpr.SetDefault("testMode", true)
	}
	vpr.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	vpr.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            vpr.GetString("build"),
		Debug:            vpr.GetBool("debug"),
		TestMode:         vpr.GetBool("testMode"),
		AppName:          vpr.GetString("appName"),
		SecretKey:        vpr.GetString("secretKey"),
		WorkDir:          wd,
		SendgridApiKey:   vpr.GetString("sendgridApiKey"),
		RollbarToken:     vpr.GetString("rollbarToken"),
		defaultFromEmail: vpr.GetString("defaultFromEmail"),
		Server: serverConfig{
			Host:               vpr.GetString("server_host"),
			Address:            vpr.GetString("server_address"),
			DebugHost:          vpr.GetString("server_debugHost"),
			ShutdownTimeout:    vpr.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta: vpr.GetDuration("server_jwtExpirationDelta"),
		},
		Database: databaseConfig{
			Engine:        vpr.GetString("database_engine"),
			Host:          vpr.GetString("database_host"),
			Port:          vpr.GetString("database_port"),
			Name:          vpr.GetString("database_name"),
			User:          vpr.GetString("database_user"),
			Password:      vpr.GetString("database_password"),
			AdminUser:     vpr.GetString("database_adminUser"),
			AdminPassword: vpr.GetString("database_adminPassword"),
			DisableTLS:    vpr.GetBool("database_disableTLS"),
		},
		Push: pushConfig{
			Provider:        strings.ToLower(vpr.GetString("push_provider")),
			BatchSize:       vpr.GetInt("push_batchSize"),
			CredentialsFile: vpr.GetString("push_credentialsFile"),
			AWSRegion:       vpr.GetString("push_awsRegion"),
			SNSPlatformArn:  vpr.GetString("push_snsPlatformArn"),
		},
		Fees: feesConfig{
			ReminderSchedule: vpr.GetString("fees_reminderSchedule"),
			ReminderTitle:    vpr.GetString("fees_reminderTitle"),
			ReminderBody:     vpr.GetString("fees_reminderBody"),
			ReminderURL:      vpr.GetString("fees_reminderURL"),
		},
		Tokens: tokensConfig{
			InactiveRetention: vpr.GetDuration("tokens_inactiveRetention"),
			StaleRetention:    vpr.GetDuration("tokens_staleRetention"),
		},
	}
}

// NewTestConfig returns the configuration used by tests; it never touches the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "Coaching",
		SecretKey:        "test-secret",
		defaultFromEmail: "noreply@test.cd",
		Server: serverConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Push:   pushConfig{Provider: "console", BatchSize: 500},
		Fees:   feesConfig{ReminderTitle: "Fee Payment Reminder", ReminderBody: "Your monthly fee is due.", ReminderURL: "/fees/history/"},
		Tokens: tokensConfig{InactiveRetention: 30 * 24 * time.Hour, StaleRetention: 90 * 24 * time.Hour},
	}
}
