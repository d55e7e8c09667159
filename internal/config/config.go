package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "COOP_"

type Application struct {
	Host          string        `koanf:"host"`
	Server        Server        `koanf:"server"`
	Frontend      Frontend      `koanf:"frontend"`
	Cors          Cors          `koanf:"cors"`
	Database      Database      `koanf:"db"`
	Session       Session       `koanf:"session"`
	Admin         Admin         `koanf:"admin"`
	Compensation  Compensation  `koanf:"compensation"`
	Import        Import        `koanf:"import"`
	Reminders     Reminders     `koanf:"reminders"`
	Notifications Notifications `koanf:"notifications"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Frontend struct {
	Enabled bool `koanf:"enabled"`
}

type Cors struct {
	AllowedOrigins []string `koanf:"allowedorigins"`
}

type Database struct {
	// Url takes precedence over the discrete connection fields when set.
	Url    string `koanf:"url"`
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Session struct {
	Secret     string        `koanf:"secret"`
	CookieName string        `koanf:"cookiename"`
	TTL        time.Duration `koanf:"ttl"`
	Secure     bool          `koanf:"secure"`
}

// Admin is the account created on startup when no user exists yet.
type Admin struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

type Compensation struct {
	DailyOvertimeHours float64 `koanf:"dailyovertimehours"`
	Timezone           string  `koanf:"timezone"`
	// ExtraHolidays are recurring local holidays in MM-DD form.
	ExtraHolidays []string `koanf:"extraholidays"`
}

type Import struct {
	MaxUploadMB int    `koanf:"maxuploadmb"`
	Timezone    string `koanf:"timezone"`
}

type Reminders struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Lead     time.Duration `koanf:"lead"`
}

type Notifications struct {
	EmailEnabled bool `koanf:"emailenabled"`
	SmsEnabled   bool `koanf:"smsenabled"`
}

func defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Server: Server{
			Addr: ":8181",
		},
		Frontend: Frontend{
			Enabled: false,
		},
		Cors: Cors{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "backoffice",
			Pass:   "",
			Name:   "backoffice",
			Schema: "backoffice",
		},
		Session: Session{
			CookieName: "session",
			TTL:        24 * time.Hour,
		},
		Compensation: Compensation{
			DailyOvertimeHours: 8,
			Timezone:           "Europe/Rome",
		},
		Import: Import{
			MaxUploadMB: 20,
			Timezone:    "Europe/Rome",
		},
		Reminders: Reminders{
			Enabled:  true,
			Interval: 15 * time.Minute,
			Lead:     24 * time.Hour,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			if strings.HasSuffix(k, "extraholidays") || strings.HasSuffix(k, "allowedorigins") {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	if err := applyWellKnownEnvs(k); err != nil {
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// applyWellKnownEnvs maps the unprefixed variables used by hosting platforms onto config keys.
func applyWellKnownEnvs(k *koanf.Koanf) error {
	if dbUrl := os.Getenv("DATABASE_URL"); dbUrl != "" {
		if err := k.Set("db.url", dbUrl); err != nil {
			return err
		}
	}
	flags := map[string]string{
		"EMAIL_ENABLED": "notifications.emailenabled",
		"SMS_ENABLED":   "notifications.smsenabled",
	}
	for envName, key := range flags {
		raw := os.Getenv(envName)
		if raw == "" {
			continue
		}
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warnf("ignoring %s=%q: %v", envName, raw, err)
			continue
		}
		if err := k.Set(key, enabled); err != nil {
			return err
		}
	}
	return nil
}
