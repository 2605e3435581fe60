package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/estacionsur/stationd/internal/domain/fuel"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Station struct {
		// TankForGrade maps fuel grade -> destination tank id for the
		// close-shift stock deduction. Defaults to t1..t4 when empty.
		TankForGrade map[string]string `mapstructure:"tank_for_grade"`
	} `mapstructure:"station"`
}

func Load(path string) (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// TankMapping returns the configured grade->tank assignment, falling back to
// the default t1..t4 layout for unconfigured grades.
func (c Config) TankMapping() map[fuel.Grade]string {
	m := map[fuel.Grade]string{
		fuel.NaftaSuper:    "t1",
		fuel.NaftaPremium:  "t2",
		fuel.Gasoil:        "t3",
		fuel.GasoilPremium: "t4",
	}
	for grade, tank := range c.Station.TankForGrade {
		g := fuel.Grade(grade)
		if g.Valid() && tank != "" {
			m[g] = tank
		}
	}
	return m
}

// Location resolves the station timezone, defaulting to the host's.
func (c Config) Location() *time.Location {
	if c.App.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
