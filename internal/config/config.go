package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/vladimirvolkov/cannonball/internal/game"
	"github.com/vladimirvolkov/cannonball/internal/middleware"
)

type Config struct {
	Port           string
	StaticDir      string
	AllowedOrigins []string
	TuningFile     string
	SceneFile      string
	MaxSessions    int
	Limits         middleware.Limits
}

// Load reads an optional .env file into the environment and then builds the
// config from environment variables. Variables already set win over .env.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
		log.Printf("loaded environment from %s", f)
	}

	cfg := Config{
		Port:       getEnv("PORT", "8080"),
		StaticDir:  getEnv("STATIC_DIR", "../client/dist"),
		TuningFile: os.Getenv("TUNING_FILE"),
		SceneFile:  os.Getenv("SCENE_FILE"),
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	var err error
	if cfg.MaxSessions, err = getInt("MAX_SESSIONS", 100); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxConnsPerIP, err = getInt("MAX_CONNS_PER_IP", 4); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MsgRate, err = getInt("MSG_RATE", 120); err != nil {
		return Config{}, err
	}
	cfg.Limits.MsgWindow = time.Second
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}

// LoadParams overlays the TOML file at path on the default tuning. An empty
// path returns the defaults.
func LoadParams(path string) (game.Params, error) {
	p := game.DefaultParams()
	if path == "" {
		return p, nil
	}
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return game.Params{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return game.Params{}, fmt.Errorf("tuning %s: unknown keys %v", path, undec)
	}
	if err := p.Validate(); err != nil {
		return game.Params{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return p, nil
}

// LoadScene decodes and builds the scene at path. An empty path returns the
// classic scene.
func LoadScene(path string) (*game.Scene, error) {
	if path == "" {
		return game.ClassicScene(), nil
	}
	var desc game.SceneDesc
	md, err := toml.DecodeFile(path, &desc)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("scene %s: unknown keys %v", path, undec)
	}
	sc, err := game.BuildScene(desc)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return sc, nil
}

// WriteScene encodes desc as TOML, the inverse of LoadScene.
func WriteScene(path string, desc game.SceneDesc) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(desc); err != nil {
		f.Close()
		return fmt.Errorf("scene %s: %w", path, err)
	}
	return f.Close()
}
