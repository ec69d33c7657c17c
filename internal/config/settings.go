package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces recon's environment variables (RECON_LOG_LEVEL, ...).
const EnvPrefix = "RECON"

// Settings are per-invocation options resolved from flags, environment and
// .env files, in that order of precedence. Project-level choices live in
// recon.yaml instead.
type Settings struct {
	Dir          string
	LogLevel     string
	LogFormat    string
	NoColor      bool
	Format       string
	OutDir       string
	Workers      int
	GeminiAPIKey string
}

// NewViper returns a viper instance reading RECON_* variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dir", ".")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "auto")
	v.SetDefault("workers", 4)
	return v
}

// LoadEnvFiles loads .env then .env.local from dir. Variables already set in
// the environment are not overridden. Missing files are ignored.
func LoadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// LoadSettings reads Settings from v. The Gemini key is taken from
// GEMINI_API_KEY, or GOOGLE_API_KEY as a fallback.
func LoadSettings(v *viper.Viper) Settings {
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	return Settings{
		Dir:          v.GetString("dir"),
		LogLevel:     v.GetString("log-level"),
		LogFormat:    v.GetString("log-format"),
		NoColor:      v.GetBool("no-color"),
		Format:       v.GetString("format"),
		OutDir:       v.GetString("out"),
		Workers:      v.GetInt("workers"),
		GeminiAPIKey: v.GetString("gemini_api_key"),
	}
}

// Path returns the recon.yaml location for s.Dir.
func (s Settings) Path() string {
	return filepath.Join(s.Dir, FileName)
}
