package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag maps a command-line flag to a config key.
type Flag struct {
	Name     string
	ViperKey string
}

// Registered flags. Commands define the flags themselves; Bind connects
// whichever of these are present.
var Flags = []Flag{
	{Name: "db", ViperKey: "db.path"},
	{Name: "debug", ViperKey: "debug"},
	{Name: "provider", ViperKey: "llm.provider"},
	{Name: "proxy-url", ViperKey: "llm.proxy.url"},
	{Name: "model", ViperKey: "coach.model"},
	{Name: "listen", ViperKey: "server.listen"},
	{Name: "api-key", ViperKey: "server.api_key"},
	{Name: "origin", ViperKey: "server.allowed_origins"},
	{Name: "json-logs", ViperKey: "server.json_logs"},
}

// Bind binds every registered flag found in fs to v. Only flags the user
// set override lower-precedence sources.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, f := range Flags {
		pf := fs.Lookup(f.Name)
		if pf == nil {
			continue
		}
		if err := v.BindPFlag(f.ViperKey, pf); err != nil {
			return err
		}
	}
	return nil
}
