package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // churches run in their local zone even on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LoginRateLimit            float64 // requests per second per IP
		MaxUploadSize             int64   // bytes
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	StorageConfig struct {
		Backend            string // local | oss
		LocalDir           string
		PublicBaseURL      string
		OSSEndpoint        string
		OSSAccessKeyID     string
		OSSAccessKeySecret string
		OSSBucket          string
		MaxImageDimension  int
		MaxImagePixels     int // width * height accepted before decoding
		JPEGQuality        int
	}

	PointsConfig struct {
		Attendance int
		Recitation int
		QT         int
	}

	JobsConfig struct {
		DigestSpec     string
		SweepSpec      string
		GameSessionTTL time.Duration
	}

	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		WorkDir                   string
		TimeZone                  string
		Location                  *time.Location // calendar days (attendance, QT) are taken here
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string

		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
		Points   PointsConfig
		Jobs     JobsConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dbc.Host, dbc.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Dalant")
	v.SetDefault("secretKey", "x8#p2-kq!vz&0m(ur@l4n)t+wq7%e9d$c1_f3h*g6j")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("workDir", ".")
	v.SetDefault("timeZone", "Asia/Seoul")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.loginRateLimit", 1.0)
	v.SetDefault("server.maxUploadSize", int64(8<<20))

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "dalant")
	v.SetDefault("database.user", "dalant")
	v.SetDefault("database.password", "dalant")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.maxOpenConns", 20)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "media")
	v.SetDefault("storage.publicBaseURL", "")
	v.SetDefault("storage.maxImageDimension", 1600)
	v.SetDefault("storage.maxImagePixels", 40_000_000)
	v.SetDefault("storage.jpegQuality", 80)

	v.SetDefault("points.attendance", 1)
	v.SetDefault("points.recitation", 1)
	v.SetDefault("points.qt", 1)

	v.SetDefault("jobs.digestSpec", "0 18 * * *")
	v.SetDefault("jobs.sweepSpec", "@every 10m")
	v.SetDefault("jobs.gameSessionTTL", 3*time.Hour)
}

// NewConfig loads the app configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix("dalant")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	tz := v.GetString("timeZone")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("config.time.LoadLocation(%s): %v", tz, err)
	}
	Location = loc

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		WorkDir:                   v.GetString("workDir"),
		TimeZone:                  tz,
		Location:                  loc,
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ReadTimeout:               v.GetDuration("server.readTimeout"),
			WriteTimeout:              v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			LoginRateLimit:            v.GetFloat64("server.loginRateLimit"),
			MaxUploadSize:             v.GetInt64("server.maxUploadSize"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
		},
		Storage: StorageConfig{
			Backend:            v.GetString("storage.backend"),
			LocalDir:           v.GetString("storage.localDir"),
			PublicBaseURL:      strings.TrimRight(v.GetString("storage.publicBaseURL"), "/"),
			OSSEndpoint:        v.GetString("storage.ossEndpoint"),
			OSSAccessKeyID:     v.GetString("storage.ossAccessKeyID"),
			OSSAccessKeySecret: v.GetString("storage.ossAccessKeySecret"),
			OSSBucket:          v.GetString("storage.ossBucket"),
			MaxImageDimension:  v.GetInt("storage.maxImageDimension"),
			MaxImagePixels:     v.GetInt("storage.maxImagePixels"),
			JPEGQuality:        v.GetInt("storage.jpegQuality"),
		},
		Points: PointsConfig{
			Attendance: v.GetInt("points.attendance"),
			Recitation: v.GetInt("points.recitation"),
			QT:         v.GetInt("points.qt"),
		},
		Jobs: JobsConfig{
			DigestSpec:     v.GetString("jobs.digestSpec"),
			SweepSpec:      v.GetString("jobs.sweepSpec"),
			GameSessionTTL: v.GetDuration("jobs.gameSessionTTL"),
		},
	}
}
